package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cuemby/loadstore/pkg/catalog"
	"github.com/cuemby/loadstore/pkg/types"
)

// abort rolls a transaction back best-effort. A failed abort is logged
// rather than returned so it cannot mask the failure that triggered it.
func (s *Store) abort(txn *Txn) {
	if err := s.env.Abort(txn); err != nil {
		s.logger.Warn().Err(err).Msg("transaction abort failed")
	}
}

// WriteJob persists a job. An existing readable record is overwritten in
// place with no folder involvement; a new record (or one whose stored
// bytes no longer decode) is written together with its folder-membership
// update in one transaction. The derived disabled/pending/running sets
// are reclassified afterwards.
func (s *Store) WriteJob(job *types.Job) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	existing, err := s.env.Get(nil, CollectionJob, job.JobID)
	if err != nil {
		return err
	}

	isNew := existing == nil
	if existing != nil {
		if _, derr := types.DecodeJobSummary(existing); derr != nil {
			// Unreadable legacy record: overwrite through the folder
			// path. AddJobID dedups, so membership stays consistent.
			s.logger.Warn().
				Str("job_id", job.JobID).
				Err(derr).
				Msg("existing job record is unreadable, rewriting through folder path")
			isNew = true
		}
	}

	if !isNew {
		if err := s.env.Put(nil, CollectionJob, job.JobID, job.Encode()); err != nil {
			return err
		}
		return s.reclassifyJob(job.JobID, job.State)
	}

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	folder, err := s.getFolderInTxn(txn, job.FolderName)
	if err != nil {
		s.abort(txn)
		return err
	}
	if folder == nil {
		s.abort(txn)
		return fmt.Errorf("no such folder: %s", job.FolderName)
	}
	folder.AddJobID(job.JobID)

	if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionJob, job.JobID, job.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Commit(txn); err != nil {
		return err
	}

	return s.reclassifyJob(job.JobID, job.State)
}

// RemoveJob deletes a job and drops it from its folder's membership in
// one transaction. When the stored bytes no longer decode, the record is
// deleted bare: an unreadable record must never block its own removal.
func (s *Store) RemoveJob(jobID string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	data, err := s.env.Get(nil, CollectionJob, jobID)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such job: %s", jobID)
	}

	job, derr := types.DecodeJobSummary(data)
	if derr != nil {
		s.logger.Warn().
			Str("job_id", jobID).
			Err(derr).
			Msg("job record is unreadable, deleting without folder bookkeeping")
		if err := s.env.Delete(nil, CollectionJob, jobID); err != nil {
			return err
		}
		return s.reclassifyJob(jobID, types.JobStateUnknown)
	}

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	folder, err := s.getFolderInTxn(txn, job.FolderName)
	if err != nil {
		s.abort(txn)
		return err
	}
	if folder != nil {
		folder.RemoveJobID(jobID)
		if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
			s.abort(txn)
			return err
		}
	}
	if err := s.env.Delete(txn, CollectionJob, jobID); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Commit(txn); err != nil {
		return err
	}

	return s.reclassifyJob(jobID, types.JobStateUnknown)
}

// MoveJob relocates a job between folders: source membership, destination
// membership, and the job's own folder field all change in one
// transaction.
func (s *Store) MoveJob(jobID, sourceFolder, destFolder string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	if sourceFolder == destFolder {
		return nil
	}

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	data, err := s.env.Get(txn, CollectionJob, jobID)
	if err != nil {
		s.abort(txn)
		return err
	}
	if data == nil {
		s.abort(txn)
		return fmt.Errorf("no such job: %s", jobID)
	}
	job, err := types.DecodeJob(data)
	if err != nil {
		s.abort(txn)
		return err
	}

	src, err := s.getFolderInTxn(txn, sourceFolder)
	if err != nil {
		s.abort(txn)
		return err
	}
	if src == nil {
		s.abort(txn)
		return fmt.Errorf("no such folder: %s", sourceFolder)
	}
	dst, err := s.getFolderInTxn(txn, destFolder)
	if err != nil {
		s.abort(txn)
		return err
	}
	if dst == nil {
		s.abort(txn)
		return fmt.Errorf("no such folder: %s", destFolder)
	}

	src.RemoveJobID(jobID)
	dst.AddJobID(jobID)
	job.FolderName = destFolder

	if err := s.env.Put(txn, CollectionFolder, src.Name, src.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionFolder, dst.Name, dst.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionJob, jobID, job.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// GetJob returns the job with all fields, or (nil, nil) when absent.
func (s *Store) GetJob(jobID string) (*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionJob, jobID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeJob(data)
}

// GetJobSummary returns the job without its statistics payload, log
// messages, or parameters, or (nil, nil) when absent.
func (s *Store) GetJobSummary(jobID string) (*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionJob, jobID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeJobSummary(data)
}

// GetJobs returns every job a folder lists. A job the folder references
// but that no longer exists is logged and skipped.
func (s *Store) GetJobs(folderName string) ([]*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	folder, err := s.getFolderInTxn(nil, folderName)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, fmt.Errorf("no such folder: %s", folderName)
	}
	return s.jobsByID(folder.JobIDs)
}

// GetCompletedJobs returns the folder's jobs that have reached a terminal
// state.
func (s *Store) GetCompletedJobs(folderName string) ([]*types.Job, error) {
	jobs, err := s.GetJobs(folderName)
	if err != nil {
		return nil, err
	}
	completed := jobs[:0]
	for _, j := range jobs {
		if j.State.Done() {
			completed = append(completed, j)
		}
	}
	return completed, nil
}

// GetVirtualFolderJobs returns the jobs a virtual folder references.
// Virtual folders point at jobs owned elsewhere, so dangling references
// are expected and skipped.
func (s *Store) GetVirtualFolderJobs(folderName string) ([]*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := s.env.Get(nil, CollectionVirtualFolder, folderName)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("no such virtual folder: %s", folderName)
	}
	folder, err := types.DecodeJobFolder(data)
	if err != nil {
		return nil, err
	}
	return s.jobsByID(folder.JobIDs)
}

func (s *Store) jobsByID(jobIDs []string) ([]*types.Job, error) {
	jobs := make([]*types.Job, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		data, err := s.env.Get(nil, CollectionJob, jobID)
		if err != nil {
			return nil, err
		}
		if data == nil {
			s.logger.Warn().Str("job_id", jobID).Msg("referenced job record is missing")
			continue
		}
		job, err := types.DecodeJob(data)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Derived job-ID sets.

func jobIDSet(value string) map[string]struct{} {
	ids := catalog.Split(value)
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedSet(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// reclassifyJob brings the three derived sets in line with the job's
// state: it is added to the one matching set and removed from any it no
// longer matches. Each changed set is re-persisted to its config key in a
// single best-effort write; a failed write propagates and the caller must
// treat the job's classification as unknown until retried.
func (s *Store) reclassifyJob(jobID string, state types.JobState) error {
	if err := s.updateJobSet(&s.disabledMu, &s.disabledJobs, configKeyDisabledJobs,
		jobID, state == types.JobStateDisabled); err != nil {
		return err
	}
	if err := s.updateJobSet(&s.pendingMu, &s.pendingJobs, configKeyPendingJobs,
		jobID, state == types.JobStateNotYetStarted); err != nil {
		return err
	}
	return s.updateJobSet(&s.runningMu, &s.runningJobs, configKeyRunningJobs,
		jobID, state == types.JobStateRunning)
}

func (s *Store) updateJobSet(mu *sync.Mutex, set *map[string]struct{}, configKey, jobID string, want bool) error {
	mu.Lock()
	defer mu.Unlock()

	_, has := (*set)[jobID]
	if has == want {
		return nil
	}
	if want {
		(*set)[jobID] = struct{}{}
	} else {
		delete(*set, jobID)
	}

	// The derived lists live under ordinary config keys, but changes to
	// them do not go through subscriber notification.
	value := catalog.Join(sortedSet(*set))
	if err := s.env.Put(nil, CollectionConfig, configKey, []byte(value)); err != nil {
		return err
	}
	s.configMu.Lock()
	s.configCache[configKey] = value
	s.configMu.Unlock()
	return nil
}

// DisabledJobIDs returns the IDs in the disabled set, sorted.
func (s *Store) DisabledJobIDs() []string {
	s.disabledMu.Lock()
	defer s.disabledMu.Unlock()
	return sortedSet(s.disabledJobs)
}

// PendingJobIDs returns the IDs in the pending set, sorted.
func (s *Store) PendingJobIDs() []string {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return sortedSet(s.pendingJobs)
}

// RunningJobIDs returns the IDs in the running set, sorted.
func (s *Store) RunningJobIDs() []string {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return sortedSet(s.runningJobs)
}

// DisabledJobs returns the full records for the disabled set.
func (s *Store) DisabledJobs() ([]*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.jobsByID(s.DisabledJobIDs())
}

// PendingJobs returns the full records for the pending set.
func (s *Store) PendingJobs() ([]*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.jobsByID(s.PendingJobIDs())
}

// RunningJobs returns the full records for the running set.
func (s *Store) RunningJobs() ([]*types.Job, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.jobsByID(s.RunningJobIDs())
}
