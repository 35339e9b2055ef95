package types

import (
	"github.com/cuemby/loadstore/pkg/codec"
	"golang.org/x/crypto/bcrypt"
)

// Element names for encoded user accounts.
const (
	userElementName     = "username"
	userElementPassword = "password"
	userElementIsAdmin  = "isadmin"
	userElementFolder   = "folder"
	userElementGroups   = "groups"
)

// User is an account in the access-control model. The password is held only
// as a bcrypt hash; the group list is kept sorted.
type User struct {
	Name          string
	PasswordHash  []byte
	Admin         bool
	DefaultFolder string
	GroupNames    []string
}

// NewUser creates a user with no password set.
func NewUser(name string) *User {
	return &User{
		Name:       name,
		GroupNames: []string{},
	}
}

// SetPassword hashes the plaintext and stores the result.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash. A
// user with no password set never matches.
func (u *User) CheckPassword(plaintext string) bool {
	if len(u.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plaintext)) == nil
}

// IsMemberOf reports whether the user belongs to the named group.
func (u *User) IsMemberOf(groupName string) bool {
	return containsString(u.GroupNames, groupName)
}

// AddGroupName adds the user to the named group, keeping the list sorted.
func (u *User) AddGroupName(name string) {
	u.GroupNames = addSorted(u.GroupNames, name)
}

// RemoveGroupName removes the user from the named group.
func (u *User) RemoveGroupName(name string) {
	u.GroupNames = removeString(u.GroupNames, name)
}

// Encode serializes the user as a tagged record.
func (u *User) Encode() []byte {
	return codec.Sequence(
		codec.String(userElementName),
		codec.String(u.Name),
		codec.String(userElementPassword),
		codec.Bytes(u.PasswordHash),
		codec.String(userElementIsAdmin),
		codec.Bool(u.Admin),
		codec.String(userElementFolder),
		codec.String(u.DefaultFolder),
		codec.String(userElementGroups),
		codec.Strings(orEmpty(u.GroupNames)),
	).Encode()
}

// DecodeUser parses a tagged record into a user. Unknown element names are
// skipped.
func DecodeUser(data []byte) (*User, error) {
	const entity = "user"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	u := NewUser("")
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case userElementName:
			u.Name, err = value.AsString()
		case userElementPassword:
			u.PasswordHash, err = value.AsBytes()
		case userElementIsAdmin:
			u.Admin, err = value.AsBool()
		case userElementFolder:
			u.DefaultFolder, err = value.AsString()
		case userElementGroups:
			u.GroupNames, err = value.AsStringSlice()
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return u, nil
}
