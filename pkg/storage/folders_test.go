package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/types"
)

func TestCreateFolderRegistersChild(t *testing.T) {
	s := newTestStore(t)

	child := types.NewJobFolder("Benchmarks")
	child.Parent = types.FolderNameUnclassified
	require.NoError(t, s.CreateFolder(child))

	parent, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.True(t, parent.ContainsChildName("Benchmarks"))

	assert.Error(t, s.CreateFolder(child), "duplicate create must fail")

	orphan := types.NewJobFolder("Orphan")
	orphan.Parent = "nope"
	require.Error(t, s.CreateFolder(orphan))
	exists, err := s.FolderExists("Orphan")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetFoldersDefaultFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFolder(types.NewJobFolder("Alpha")))
	require.NoError(t, s.CreateFolder(types.NewJobFolder("Zulu")))

	folders, err := s.GetFolders()
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, types.FolderNameUnclassified, folders[0].Name)
	assert.Equal(t, "Alpha", folders[1].Name)
	assert.Equal(t, "Zulu", folders[2].Name)
}

func TestRemoveFolderWithChildrenFails(t *testing.T) {
	s := newTestStore(t)

	child := types.NewJobFolder("Child")
	child.Parent = types.FolderNameUnclassified
	require.NoError(t, s.CreateFolder(child))

	// Even a cascading delete must not reach through child folders.
	err := s.RemoveFolder(types.FolderNameUnclassified, true)
	assert.ErrorIs(t, err, ErrFolderHasChildren)

	exists, err := s.FolderExists(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemoveFolderNotEmptyFails(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFolder(types.NewJobFolder("Target")))

	job := types.NewJob("misc.NoopJob")
	job.FolderName = "Target"
	require.NoError(t, s.WriteJob(job))

	err := s.RemoveFolder("Target", false)
	assert.ErrorIs(t, err, ErrFolderNotEmpty)

	// Everything stays in place after the refused delete.
	got, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	folder, err := s.GetFolder("Target")
	require.NoError(t, err)
	assert.True(t, folder.ContainsJobID(job.JobID))
}

func TestRemoveFolderCascades(t *testing.T) {
	s := newTestStore(t)

	target := types.NewJobFolder("Target")
	target.Parent = types.FolderNameUnclassified
	require.NoError(t, s.CreateFolder(target))

	job := types.NewJob("misc.NoopJob")
	job.FolderName = "Target"
	job.State = types.JobStateNotYetStarted
	require.NoError(t, s.WriteJob(job))

	opt := types.NewOptimizingJob("misc.NoopJob", "SingleStatisticOptimization")
	opt.FolderName = "Target"
	require.NoError(t, s.WriteOptimizingJob(opt))

	file := types.NewUploadedFile("notes.txt", "text/plain", "", []byte("hi"))
	require.NoError(t, s.WriteUploadedFile("Target", file))

	require.NoError(t, s.RemoveFolder("Target", true))

	exists, err := s.FolderExists("Target")
	require.NoError(t, err)
	assert.False(t, exists)

	gotJob, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.Nil(t, gotJob)
	gotOpt, err := s.GetOptimizingJob(opt.OptimizingJobID)
	require.NoError(t, err)
	assert.Nil(t, gotOpt)
	gotFile, err := s.GetUploadedFile("Target", "notes.txt")
	require.NoError(t, err)
	assert.Nil(t, gotFile)

	assert.Empty(t, s.PendingJobIDs())

	parent, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.False(t, parent.ContainsChildName("Target"))
}

func TestVirtualFolders(t *testing.T) {
	s := newTestStore(t)

	job := types.NewJob("misc.NoopJob")
	require.NoError(t, s.WriteJob(job))

	view := types.NewJobFolder("favorites")
	view.SetJobIDs([]string{job.JobID, "gone-job"})
	require.NoError(t, s.WriteVirtualFolder(view))

	got, err := s.GetVirtualFolder("favorites")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Virtual)

	// Dangling references are expected in saved views and skipped.
	jobs, err := s.GetVirtualFolderJobs("favorites")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.JobID, jobs[0].JobID)

	all, err := s.GetVirtualFolders()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.RemoveVirtualFolder("favorites"))
	gone, err := s.GetVirtualFolder("favorites")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Removing the view never touches the jobs it referenced.
	still, err := s.GetJob(job.JobID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestUploadedFileLifecycle(t *testing.T) {
	s := newTestStore(t)

	payload := []byte("a,b\n1,2\n")
	file := types.NewUploadedFile("data.csv", "text/csv", "results", payload)
	require.NoError(t, s.WriteUploadedFile(types.FolderNameUnclassified, file))

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.True(t, folder.ContainsFileName("data.csv"))

	got, err := s.GetUploadedFile(types.FolderNameUnclassified, "data.csv")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payload, got.Data)

	meta, err := s.GetUploadedFileWithoutData(types.FolderNameUnclassified, "data.csv")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Nil(t, meta.Data)
	assert.Equal(t, len(payload), meta.Size)

	listed, err := s.GetUploadedFiles(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, s.RemoveUploadedFile(types.FolderNameUnclassified, "data.csv"))
	folder, err = s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.False(t, folder.ContainsFileName("data.csv"))
}

func TestOptimizingJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFolder(types.NewJobFolder("Target")))

	opt := types.NewOptimizingJob("misc.NoopJob", "SingleStatisticOptimization")
	require.NoError(t, s.WriteOptimizingJob(opt))

	folder, err := s.GetFolder(types.FolderNameUnclassified)
	require.NoError(t, err)
	assert.True(t, folder.ContainsOptimizingJobID(opt.OptimizingJobID))

	require.NoError(t, s.MoveOptimizingJob(opt.OptimizingJobID, types.FolderNameUnclassified, "Target"))
	moved, err := s.GetOptimizingJob(opt.OptimizingJobID)
	require.NoError(t, err)
	assert.Equal(t, "Target", moved.FolderName)

	listed, err := s.GetOptimizingJobs("Target")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, s.RemoveOptimizingJob(opt.OptimizingJobID))
	folder, err = s.GetFolder("Target")
	require.NoError(t, err)
	assert.False(t, folder.ContainsOptimizingJobID(opt.OptimizingJobID))
}
