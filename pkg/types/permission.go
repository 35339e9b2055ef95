package types

import "github.com/cuemby/loadstore/pkg/codec"

// Element names for encoded permissions.
const (
	permElementName   = "name"
	permElementUsers  = "users"
	permElementGroups = "groups"
)

// Permission is a named capability with user-name and group-name
// allow-lists. Permissions are not stored standalone; they are embedded
// inside the folders they protect. Both allow-lists are kept sorted.
type Permission struct {
	Name       string
	UserNames  []string
	GroupNames []string
}

// NewPermission creates a permission with sorted copies of the provided
// allow-lists.
func NewPermission(name string, userNames, groupNames []string) *Permission {
	return &Permission{
		Name:       name,
		UserNames:  sortedCopy(userNames),
		GroupNames: sortedCopy(groupNames),
	}
}

// AppliesToUser reports whether the user is named directly or through one
// of its groups.
func (p *Permission) AppliesToUser(user *User) bool {
	if containsString(p.UserNames, user.Name) {
		return true
	}
	for _, group := range user.GroupNames {
		if containsString(p.GroupNames, group) {
			return true
		}
	}
	return false
}

// AddUserName grants the permission to the named user.
func (p *Permission) AddUserName(name string) {
	p.UserNames = addSorted(p.UserNames, name)
}

// RemoveUserName revokes the permission from the named user.
func (p *Permission) RemoveUserName(name string) {
	p.UserNames = removeString(p.UserNames, name)
}

// AddGroupName grants the permission to the named group.
func (p *Permission) AddGroupName(name string) {
	p.GroupNames = addSorted(p.GroupNames, name)
}

// RemoveGroupName revokes the permission from the named group.
func (p *Permission) RemoveGroupName(name string) {
	p.GroupNames = removeString(p.GroupNames, name)
}

// toElement encodes the permission as a nested sequence for embedding in a
// folder record.
func (p *Permission) toElement() codec.Element {
	return codec.Sequence(
		codec.String(permElementName),
		codec.String(p.Name),
		codec.String(permElementUsers),
		codec.Strings(orEmpty(p.UserNames)),
		codec.String(permElementGroups),
		codec.Strings(orEmpty(p.GroupNames)),
	)
}

func permissionFromElement(e codec.Element) (*Permission, error) {
	elements, err := e.AsSequence()
	if err != nil {
		return nil, err
	}

	p := &Permission{UserNames: []string{}, GroupNames: []string{}}
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, err
		}

		switch name {
		case permElementName:
			p.Name, err = elements[i+1].AsString()
		case permElementUsers:
			p.UserNames, err = elements[i+1].AsStringSlice()
		case permElementGroups:
			p.GroupNames, err = elements[i+1].AsStringSlice()
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}
