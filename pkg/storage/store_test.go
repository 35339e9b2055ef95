package storage

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBootstrapSeedsDefaults(t *testing.T) {
	s := newTestStore(t)

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	require.NotNil(t, folder)
	assert.True(t, folder.DisplayInReadOnly)
	assert.Empty(t, folder.JobIDs)

	classes, err := s.JobClassNames()
	require.NoError(t, err)
	assert.Contains(t, classes, "misc.NoopJob")

	algos, err := s.OptimizationAlgorithmNames()
	require.NoError(t, err)
	assert.NotEmpty(t, algos)

	generators, err := s.ReportGeneratorNames()
	require.NoError(t, err)
	assert.NotEmpty(t, generators)

	logFile, err := s.GetConfigParameter(configKeyLogFile)
	require.NoError(t, err)
	assert.Equal(t, defaultLogFileName, logFile)
}

func TestBootstrapRefusesExistingStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	assert.True(t, StoreExists(dir))
	assert.Error(t, Bootstrap(dir))
}

func TestOpenMissingEnvironmentFails(t *testing.T) {
	_, err := Open(Options{DataDir: t.TempDir()})
	require.Error(t, err)
}

func TestClosedCollectionsRejectOperations(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CloseCollections())

	_, err := s.GetFolder(types.FolderNameUnclassified)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.WriteJob(types.NewJob("misc.NoopJob")), ErrStoreClosed)
	assert.ErrorIs(t, s.CloseCollections(), ErrStoreClosed)

	// Reopening rebuilds the caches and the store is usable again.
	require.NoError(t, s.OpenCollections())
	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.NotNil(t, folder)
}

func TestIdempotentReopen(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.State = types.JobStateNotYetStarted
	require.NoError(t, s.WriteJob(job))
	require.NoError(t, s.SetConfigParameter("scheduler_interval", "5"))

	namesBefore, err := s.ConfigParameterNames()
	require.NoError(t, err)
	pendingBefore := s.PendingJobIDs()

	require.NoError(t, s.CloseCollections())
	require.NoError(t, s.OpenCollections())

	namesAfter, err := s.ConfigParameterNames()
	require.NoError(t, err)
	assert.Equal(t, namesBefore, namesAfter)
	assert.Equal(t, pendingBefore, s.PendingJobIDs())

	value, err := s.GetConfigParameter("scheduler_interval")
	require.NoError(t, err)
	assert.Equal(t, "5", value)
}

func TestReadOnlyStoreRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))

	s, err := Open(Options{DataDir: dir, ReadOnly: true})
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.ReadOnly())
	assert.ErrorIs(t, s.WriteJob(types.NewJob("misc.NoopJob")), ErrReadOnly)
	assert.ErrorIs(t, s.SetConfigParameter("x", "y"), ErrReadOnly)
	assert.ErrorIs(t, s.RemoveFolder(types.FolderNameUnclassified, false), ErrReadOnly)

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.NotNil(t, folder)
}

func TestRawCollectionAccess(t *testing.T) {
	s := newTestStore(t)

	names := s.CollectionNames()
	assert.Len(t, names, 9)
	assert.Contains(t, names, CollectionJob)

	keys, err := s.CollectionKeys(CollectionFolder)
	require.NoError(t, err)
	assert.Equal(t, []string{types.FolderNameUnclassified}, keys)

	data, err := s.RawRecord(CollectionFolder, types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = s.CollectionKeys("bogus")
	assert.Error(t, err)

	missing, err := s.RawRecord(CollectionJob, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCloseDuringConcurrentWrites(t *testing.T) {
	s := newTestStore(t)

	// Writers race against repeated close/reopen cycles. Every write must
	// either land while the collections are open or fail with
	// ErrStoreClosed; a write can never observe a half-closed store.
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := s.SetConfigParameter("scheduler_interval", strconv.Itoa(i)); err != nil {
					assert.ErrorIs(t, err, ErrStoreClosed)
				}
				job := types.NewJob("misc.NoopJob")
				job.State = types.JobStateNotYetStarted
				if err := s.WriteJob(job); err != nil {
					assert.ErrorIs(t, err, ErrStoreClosed)
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		if err := s.CloseCollections(); err != nil {
			assert.ErrorIs(t, err, ErrStoreClosed)
		}
		require.NoError(t, s.OpenCollections())
	}
	wg.Wait()

	require.NoError(t, s.OpenCollections())
	value, err := s.GetConfigParameter("scheduler_interval")
	require.NoError(t, err)
	assert.NotEmpty(t, value)
}

func TestEnvironmentShutdownAbortsTransactions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)

	txn, err := s.Environment().Begin(false)
	require.NoError(t, err)
	_ = txn

	require.NoError(t, s.Close())
	_, err = s.Environment().Begin(false)
	assert.ErrorIs(t, err, ErrEnvClosed)
}
