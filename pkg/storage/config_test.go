package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/catalog"
)

type recordingSubscriber struct {
	name    string
	fail    bool
	changes []string
}

func (r *recordingSubscriber) SubscriberName() string { return r.name }

func (r *recordingSubscriber) ConfigChanged(parameterName string) error {
	if r.fail {
		return errors.New("subscriber unavailable")
	}
	r.changes = append(r.changes, parameterName)
	return nil
}

func TestConfigTypedAccessors(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetConfigParameter("max_clients", "32"))
	require.NoError(t, s.SetConfigParameter("require_auth", "true"))
	require.NoError(t, s.SetConfigParameter("weird_int", "not-a-number"))

	n, err := s.GetConfigInt("max_clients", 1)
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	b, err := s.GetConfigBool("require_auth", false)
	require.NoError(t, err)
	assert.True(t, b)

	// Unparseable values fall back to the default rather than failing.
	n, err = s.GetConfigInt("weird_int", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = s.GetConfigInt("unset", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	v, err := s.GetConfigString("unset", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestRemoveConfigParameter(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetConfigParameter("ephemeral", "x"))
	require.NoError(t, s.RemoveConfigParameter("ephemeral"))

	value, err := s.GetConfigParameter("ephemeral")
	require.NoError(t, err)
	assert.Empty(t, value)

	names, err := s.ConfigParameterNames()
	require.NoError(t, err)
	assert.NotContains(t, names, "ephemeral")
}

func TestSubscribersNotified(t *testing.T) {
	s := newTestStore(t)

	good := &recordingSubscriber{name: "good"}
	bad := &recordingSubscriber{name: "bad", fail: true}
	s.RegisterSubscriber(good)
	s.RegisterSubscriber(bad)

	assert.NotNil(t, s.Subscriber("good"))
	assert.Nil(t, s.Subscriber("missing"))

	// A failing subscriber never blocks the write or the others.
	require.NoError(t, s.SetConfigParameter("interval", "10"))
	assert.Equal(t, []string{"interval"}, good.changes)

	require.NoError(t, s.RemoveConfigParameter("interval"))
	assert.Equal(t, []string{"interval", "interval"}, good.changes)

	s.UnregisterSubscriber("good")
	require.NoError(t, s.SetConfigParameter("interval", "20"))
	assert.Len(t, good.changes, 2)
}

func TestJobClassCatalog(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddJobClass("custom.MyJob"))
	classes, err := s.JobClassNames()
	require.NoError(t, err)
	assert.Contains(t, classes, "custom.MyJob")

	// Adding again is a no-op.
	require.NoError(t, s.AddJobClass("custom.MyJob"))
	again, err := s.JobClassNames()
	require.NoError(t, err)
	assert.Equal(t, classes, again)

	require.NoError(t, s.RemoveJobClass("custom.MyJob"))
	classes, err = s.JobClassNames()
	require.NoError(t, err)
	assert.NotContains(t, classes, "custom.MyJob")
}

func TestJobClassCatalogWithResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))

	s, err := Open(Options{
		DataDir:  dir,
		Resolver: catalog.NewSetResolver([]string{"known.Job"}),
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddJobClass("known.Job"))
	assert.Error(t, s.AddJobClass("unknown.Job"))
}
