package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/types"
)

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	alice := types.NewUser("alice")
	alice.Admin = true
	require.NoError(t, alice.SetPassword("hunter2"))
	require.NoError(t, s.WriteUser(alice))

	bob := types.NewUser("bob")
	bob.AddGroupName("qa")
	require.NoError(t, s.WriteUser(bob))

	got, err := s.GetUser("alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Admin)
	assert.True(t, got.CheckPassword("hunter2"))

	users, err := s.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, "bob", users[1].Name)

	require.NoError(t, s.RemoveUser("bob"))
	missing, err := s.GetUser("bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Error(t, s.RemoveUser("bob"))
}

func TestGroupLifecycle(t *testing.T) {
	s := newTestStore(t)

	qa := types.NewGroup("qa", []string{"carol", "alice"})
	require.NoError(t, s.WriteGroup(qa))

	got, err := s.GetGroup("qa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"alice", "carol"}, got.MemberNames)

	groups, err := s.GetGroups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, s.RemoveGroup("qa"))
	missing, err := s.GetGroup("qa")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestJobGroupLifecycle(t *testing.T) {
	s := newTestStore(t)

	g := types.NewJobGroup("nightly")
	g.Description = "nightly regression set"
	g.AddJobData(types.NewJob("misc.NoopJob").Encode())
	require.NoError(t, s.WriteJobGroup(g))

	got, err := s.GetJobGroup("nightly")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.JobData, 1)

	summaries, err := s.GetJobGroupSummaries()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "nightly", summaries[0].Name)
	assert.Empty(t, summaries[0].JobData)

	require.NoError(t, s.RemoveJobGroup("nightly"))
	missing, err := s.GetJobGroup("nightly")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
