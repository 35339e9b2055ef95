package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/types"
)

func TestWriteJobRegistersFolderAndPendingSet(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.State = types.JobStateNotYetStarted
	require.NoError(t, s.WriteJob(job))

	assert.Contains(t, s.PendingJobIDs(), job.JobID)
	assert.Empty(t, s.RunningJobIDs())
	assert.Empty(t, s.DisabledJobIDs())

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.True(t, folder.ContainsJobID(job.JobID))

	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.JobID, got.JobID)
}

func TestWriteJobReclassifiesOnStateChange(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.State = types.JobStateNotYetStarted
	require.NoError(t, s.WriteJob(job))
	require.Contains(t, s.PendingJobIDs(), job.JobID)

	job.State = types.JobStateRunning
	require.NoError(t, s.WriteJob(job))
	assert.NotContains(t, s.PendingJobIDs(), job.JobID)
	assert.Contains(t, s.RunningJobIDs(), job.JobID)

	// Overwrite must not duplicate the folder membership entry.
	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	count := 0
	for _, id := range folder.JobIDs {
		if id == job.JobID {
			count++
		}
	}
	assert.Equal(t, 1, count)

	job.State = types.JobStateCompletedSuccessfully
	require.NoError(t, s.WriteJob(job))
	assert.Empty(t, s.RunningJobIDs())
	assert.Empty(t, s.PendingJobIDs())
}

func TestMoveJob(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFolder(types.NewJobFolder("Target")))

	job := types.NewJob("misc.NoopJob")
	require.NoError(t, s.WriteJob(job))

	require.NoError(t, s.MoveJob(job.JobID, types.FolderNameUnclassified, "Target"))

	src, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.False(t, src.ContainsJobID(job.JobID))

	dst, err := s.GetFolder("Target")
	require.NoError(t, err)
	assert.True(t, dst.ContainsJobID(job.JobID))

	moved, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Target", moved.FolderName)
}

func TestRemoveJob(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.State = types.JobStateNotYetStarted
	require.NoError(t, s.WriteJob(job))
	require.NoError(t, s.RemoveJob(job.JobID))

	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.Nil(t, got)

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.False(t, folder.ContainsJobID(job.JobID))
	assert.Empty(t, s.PendingJobIDs())

	assert.Error(t, s.RemoveJob(job.JobID))
}

func TestWriteJobOverCorruptRecord(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	require.NoError(t, s.WriteJob(job))

	// Clobber the stored bytes so the pre-read decode fails.
	require.NoError(t, s.Environment().Put(nil, CollectionJob, job.JobID, []byte("garbage")))
	_, err := s.GetJob(job.JobID)
	require.Error(t, err)

	require.NoError(t, s.WriteJob(job))

	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.JobID, got.JobID)

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	count := 0
	for _, id := range folder.JobIDs {
		if id == job.JobID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRemoveJobWithCorruptRecord(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	require.NoError(t, s.WriteJob(job))
	require.NoError(t, s.Environment().Put(nil, CollectionJob, job.JobID, []byte("garbage")))

	// An unreadable record must still be deletable; folder bookkeeping
	// is skipped.
	require.NoError(t, s.RemoveJob(job.JobID))
	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteJobUnknownFolderFails(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.FolderName = "nope"
	require.Error(t, s.WriteJob(job))

	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetJobsAndCompletedJobs(t *testing.T) {
	s := newTestStore(t)

	running := types.NewJob("misc.NoopJob")
	running.State = types.JobStateRunning
	require.NoError(t, s.WriteJob(running))

	done := types.NewJob("misc.NoopJob")
	done.State = types.JobStateCompletedSuccessfully
	require.NoError(t, s.WriteJob(done))

	jobs, err := s.GetJobs(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	completed, err := s.GetCompletedJobs(types.FolderNameUnclassified)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.JobID, completed[0].JobID)
}

func TestGetJobSummarySkipsPayload(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	job.StatData = []byte{1, 2, 3}
	job.Parameters = []types.Parameter{{Name: "k", Value: "v"}}
	require.NoError(t, s.WriteJob(job))

	summary, err := s.GetJobSummary(job.JobID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Nil(t, summary.StatData)
	assert.Empty(t, summary.Parameters)
}

func TestDerivedSetsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)

	job := types.NewJob("misc.NoopJob")
	job.State = types.JobStateDisabled
	require.NoError(t, s.WriteJob(job))
	require.NoError(t, s.Close())

	s, err = Open(Options{DataDir: dir})
	require.NoError(t, err)
	defer s.Close()
	assert.Contains(t, s.DisabledJobIDs(), job.JobID)

	disabled, err := s.DisabledJobs()
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, job.JobID, disabled[0].JobID)
}
