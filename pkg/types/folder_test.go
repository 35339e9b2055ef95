package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/codec"
)

func TestJobFolderRoundTrip(t *testing.T) {
	f := NewJobFolder("Benchmarks")
	f.DisplayInReadOnly = true
	f.Parent = FolderNameUnclassified
	f.Description = "weekly benchmark runs"
	f.SetJobIDs([]string{"job-2", "job-1"})
	f.AddOptimizingJobID("opt-1")
	f.AddChildName("Benchmarks/2026")
	f.SetFileNames([]string{"results.csv", "README.txt"})
	f.SetPermission(NewPermission("view", []string{"carol", "alice"}, []string{"qa"}))

	decoded, err := DecodeJobFolder(f.Encode())
	require.NoError(t, err)

	assert.Equal(t, "Benchmarks", decoded.Name)
	assert.True(t, decoded.DisplayInReadOnly)
	assert.False(t, decoded.Virtual)
	assert.Equal(t, FolderNameUnclassified, decoded.Parent)
	assert.Equal(t, "weekly benchmark runs", decoded.Description)
	assert.Equal(t, []string{"job-1", "job-2"}, decoded.JobIDs)
	assert.Equal(t, []string{"opt-1"}, decoded.OptimizingJobIDs)
	assert.Equal(t, []string{"Benchmarks/2026"}, decoded.ChildNames)
	// Bulk-set file names keep the caller's order.
	assert.Equal(t, []string{"results.csv", "README.txt"}, decoded.FileNames)

	require.Len(t, decoded.Permissions, 1)
	assert.Equal(t, "view", decoded.Permissions[0].Name)
	assert.Equal(t, []string{"alice", "carol"}, decoded.Permissions[0].UserNames)
	assert.Equal(t, []string{"qa"}, decoded.Permissions[0].GroupNames)
}

func TestJobFolderMembershipSemantics(t *testing.T) {
	f := NewJobFolder("scratch")

	f.AddJobID("job-b")
	f.AddJobID("job-a")
	f.AddJobID("job-b")
	assert.Equal(t, []string{"job-a", "job-b"}, f.JobIDs)

	f.RemoveJobID("job-a")
	assert.Equal(t, []string{"job-b"}, f.JobIDs)
	f.RemoveJobID("missing")
	assert.Equal(t, []string{"job-b"}, f.JobIDs)

	f.AddFileName("zz.dat")
	f.AddFileName("aa.dat")
	assert.Equal(t, []string{"aa.dat", "zz.dat"}, f.FileNames)

	assert.True(t, f.ContainsJobID("job-b"))
	assert.False(t, f.ContainsJobID("job-a"))
}

func TestJobFolderDecodeSkipsUnknownElements(t *testing.T) {
	// A record written by a newer release may carry element names this
	// one does not know; they must be ignored, not rejected.
	data := codec.Sequence(
		codec.String("name"),
		codec.String("future"),
		codec.String("shiny_new_field"),
		codec.String("whatever"),
		codec.String("jobs"),
		codec.Strings([]string{"job-1"}),
	).Encode()

	f, err := DecodeJobFolder(data)
	require.NoError(t, err)
	assert.Equal(t, "future", f.Name)
	assert.Equal(t, []string{"job-1"}, f.JobIDs)
}

func TestJobFolderDecodeGarbage(t *testing.T) {
	_, err := DecodeJobFolder([]byte{0xff, 0x01, 0x02})
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestFolderPermissionChecks(t *testing.T) {
	alice := NewUser("alice")
	bob := NewUser("bob")
	bob.AddGroupName("qa")

	f := NewJobFolder("restricted")
	f.SetPermission(NewPermission("delete", []string{"alice"}, []string{"qa"}))

	assert.True(t, f.UserHasPermission(alice, "delete"))
	assert.True(t, f.UserHasPermission(bob, "delete"))
	assert.False(t, f.UserHasPermission(NewUser("mallory"), "delete"))
	assert.False(t, f.UserHasPermission(alice, "export"))

	f.RemovePermission("delete")
	assert.False(t, f.UserHasPermission(alice, "delete"))
}
