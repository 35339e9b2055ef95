package types

import "github.com/cuemby/loadstore/pkg/codec"

// Element names for encoded groups.
const (
	groupElementName    = "name"
	groupElementMembers = "members"
)

// Group is a named set of user names, kept sorted.
type Group struct {
	Name        string
	MemberNames []string
}

// NewGroup creates a group with a sorted copy of the member list.
func NewGroup(name string, memberNames []string) *Group {
	return &Group{
		Name:        name,
		MemberNames: sortedCopy(memberNames),
	}
}

// ContainsMember reports whether the named user is in the group.
func (g *Group) ContainsMember(userName string) bool {
	return containsString(g.MemberNames, userName)
}

// AddMember adds the named user, keeping the list sorted.
func (g *Group) AddMember(userName string) {
	g.MemberNames = addSorted(g.MemberNames, userName)
}

// RemoveMember removes the named user from the group.
func (g *Group) RemoveMember(userName string) {
	g.MemberNames = removeString(g.MemberNames, userName)
}

// Encode serializes the group as a tagged record.
func (g *Group) Encode() []byte {
	return codec.Sequence(
		codec.String(groupElementName),
		codec.String(g.Name),
		codec.String(groupElementMembers),
		codec.Strings(orEmpty(g.MemberNames)),
	).Encode()
}

// DecodeGroup parses a tagged record into a group. Unknown element names
// are skipped.
func DecodeGroup(data []byte) (*Group, error) {
	const entity = "group"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	g := &Group{MemberNames: []string{}}
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}

		switch name {
		case groupElementName:
			g.Name, err = elements[i+1].AsString()
		case groupElementMembers:
			g.MemberNames, err = elements[i+1].AsStringSlice()
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return g, nil
}
