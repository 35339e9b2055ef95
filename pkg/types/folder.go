package types

import (
	"sort"

	"github.com/cuemby/loadstore/pkg/codec"
)

// FolderNameUnclassified is the default folder created when a new store is
// bootstrapped. Jobs that are not filed anywhere else land here.
const FolderNameUnclassified = "Unclassified"

// Element names for encoded job folders.
const (
	folderElementName              = "name"
	folderElementDisplayInReadOnly = "display_in_read_only"
	folderElementIsVirtual         = "is_virtual"
	folderElementParent            = "parent"
	folderElementChildren          = "children"
	folderElementDescription       = "description"
	folderElementJobIDs            = "jobs"
	folderElementOptimizingJobIDs  = "optimizing_jobs"
	folderElementFileNames         = "files"
	folderElementPermissions       = "permissions"
)

// JobFolder is a named namespace grouping jobs, optimizing jobs, and
// uploaded files. A real folder's membership lists are the authoritative
// record of what it contains; a virtual folder is a saved view referencing
// jobs owned elsewhere.
type JobFolder struct {
	Name              string
	DisplayInReadOnly bool
	Virtual           bool
	Parent            string
	ChildNames        []string
	Description       string
	JobIDs            []string
	OptimizingJobIDs  []string
	FileNames         []string
	Permissions       []*Permission
}

// NewJobFolder creates an empty folder with the given name.
func NewJobFolder(name string) *JobFolder {
	return &JobFolder{
		Name:             name,
		ChildNames:       []string{},
		JobIDs:           []string{},
		OptimizingJobIDs: []string{},
		FileNames:        []string{},
		Permissions:      []*Permission{},
	}
}

// ContainsJobID reports whether the folder lists the given job.
func (f *JobFolder) ContainsJobID(jobID string) bool {
	return containsString(f.JobIDs, jobID)
}

// AddJobID adds the job to the folder's membership, keeping the list
// sorted. Adding an already-present ID is a no-op.
func (f *JobFolder) AddJobID(jobID string) {
	f.JobIDs = addSorted(f.JobIDs, jobID)
}

// RemoveJobID removes the job from the folder's membership.
func (f *JobFolder) RemoveJobID(jobID string) {
	f.JobIDs = removeString(f.JobIDs, jobID)
}

// SetJobIDs replaces the membership list with a sorted copy.
func (f *JobFolder) SetJobIDs(jobIDs []string) {
	f.JobIDs = sortedCopy(jobIDs)
}

// ContainsOptimizingJobID reports whether the folder lists the given
// optimizing job.
func (f *JobFolder) ContainsOptimizingJobID(id string) bool {
	return containsString(f.OptimizingJobIDs, id)
}

// AddOptimizingJobID adds the optimizing job to the folder's membership,
// keeping the list sorted.
func (f *JobFolder) AddOptimizingJobID(id string) {
	f.OptimizingJobIDs = addSorted(f.OptimizingJobIDs, id)
}

// RemoveOptimizingJobID removes the optimizing job from the folder's
// membership.
func (f *JobFolder) RemoveOptimizingJobID(id string) {
	f.OptimizingJobIDs = removeString(f.OptimizingJobIDs, id)
}

// SetOptimizingJobIDs replaces the membership list with a sorted copy.
func (f *JobFolder) SetOptimizingJobIDs(ids []string) {
	f.OptimizingJobIDs = sortedCopy(ids)
}

// ContainsChildName reports whether the folder has the named child.
func (f *JobFolder) ContainsChildName(name string) bool {
	return containsString(f.ChildNames, name)
}

// AddChildName adds the named folder as a child, keeping the list sorted.
func (f *JobFolder) AddChildName(name string) {
	f.ChildNames = addSorted(f.ChildNames, name)
}

// RemoveChildName removes the named folder from the set of children.
func (f *JobFolder) RemoveChildName(name string) {
	f.ChildNames = removeString(f.ChildNames, name)
}

// SetChildNames replaces the child list with a sorted copy.
func (f *JobFolder) SetChildNames(names []string) {
	f.ChildNames = sortedCopy(names)
}

// ContainsFileName reports whether the folder lists the named uploaded
// file.
func (f *JobFolder) ContainsFileName(name string) bool {
	return containsString(f.FileNames, name)
}

// AddFileName adds the named uploaded file, keeping the list sorted.
func (f *JobFolder) AddFileName(name string) {
	f.FileNames = addSorted(f.FileNames, name)
}

// RemoveFileName removes the named uploaded file from the folder.
func (f *JobFolder) RemoveFileName(name string) {
	f.FileNames = removeString(f.FileNames, name)
}

// SetFileNames replaces the file list in the order given. Unlike the other
// membership lists, a bulk set of file names keeps the caller's order.
func (f *JobFolder) SetFileNames(names []string) {
	if names == nil {
		names = []string{}
	}
	f.FileNames = names
}

// UserHasPermission reports whether the named permission exists on this
// folder and applies to the given user.
func (f *JobFolder) UserHasPermission(user *User, permissionName string) bool {
	for _, p := range f.Permissions {
		if p.Name == permissionName {
			return p.AppliesToUser(user)
		}
	}
	return false
}

// SetPermission replaces the permission with the same name, or appends it.
func (f *JobFolder) SetPermission(permission *Permission) {
	for i, p := range f.Permissions {
		if p.Name == permission.Name {
			f.Permissions[i] = permission
			return
		}
	}
	f.Permissions = append(f.Permissions, permission)
}

// RemovePermission removes the named permission from the folder.
func (f *JobFolder) RemovePermission(name string) {
	for i, p := range f.Permissions {
		if p.Name == name {
			f.Permissions = append(f.Permissions[:i:i], f.Permissions[i+1:]...)
			return
		}
	}
}

// SortedPermissionNames returns the names of the folder's permissions in
// sorted order, for display.
func (f *JobFolder) SortedPermissionNames() []string {
	names := make([]string, len(f.Permissions))
	for i, p := range f.Permissions {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Encode serializes the folder as a tagged record.
func (f *JobFolder) Encode() []byte {
	permissions := make([]codec.Element, len(f.Permissions))
	for i, p := range f.Permissions {
		permissions[i] = p.toElement()
	}

	return codec.Sequence(
		codec.String(folderElementName),
		codec.String(f.Name),
		codec.String(folderElementDisplayInReadOnly),
		codec.Bool(f.DisplayInReadOnly),
		codec.String(folderElementIsVirtual),
		codec.Bool(f.Virtual),
		codec.String(folderElementParent),
		codec.String(f.Parent),
		codec.String(folderElementChildren),
		codec.Strings(orEmpty(f.ChildNames)),
		codec.String(folderElementDescription),
		codec.String(f.Description),
		codec.String(folderElementJobIDs),
		codec.Strings(orEmpty(f.JobIDs)),
		codec.String(folderElementOptimizingJobIDs),
		codec.Strings(orEmpty(f.OptimizingJobIDs)),
		codec.String(folderElementFileNames),
		codec.Strings(orEmpty(f.FileNames)),
		codec.String(folderElementPermissions),
		codec.Sequence(permissions...),
	).Encode()
}

// DecodeJobFolder parses a tagged record into a folder. Unknown element
// names are skipped; missing fields keep their zero defaults.
func DecodeJobFolder(data []byte) (*JobFolder, error) {
	const entity = "job folder"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	f := NewJobFolder("")
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case folderElementName:
			f.Name, err = value.AsString()
		case folderElementDisplayInReadOnly:
			f.DisplayInReadOnly, err = value.AsBool()
		case folderElementIsVirtual:
			f.Virtual, err = value.AsBool()
		case folderElementParent:
			f.Parent, err = value.AsString()
		case folderElementChildren:
			f.ChildNames, err = value.AsStringSlice()
		case folderElementDescription:
			f.Description, err = value.AsString()
		case folderElementJobIDs:
			f.JobIDs, err = value.AsStringSlice()
		case folderElementOptimizingJobIDs:
			f.OptimizingJobIDs, err = value.AsStringSlice()
		case folderElementFileNames:
			f.FileNames, err = value.AsStringSlice()
		case folderElementPermissions:
			var children []codec.Element
			children, err = value.AsSequence()
			if err != nil {
				break
			}
			f.Permissions = make([]*Permission, len(children))
			for j, child := range children {
				f.Permissions[j], err = permissionFromElement(child)
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return f, nil
}
