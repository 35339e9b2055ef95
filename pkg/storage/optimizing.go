package storage

import (
	"fmt"

	"github.com/cuemby/loadstore/pkg/types"
)

// WriteOptimizingJob persists an optimizing job, mirroring WriteJob: an
// existing readable record is overwritten alone; a new one is written
// with its folder-membership update in one transaction.
func (s *Store) WriteOptimizingJob(job *types.OptimizingJob) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	existing, err := s.env.Get(nil, CollectionOptimizingJob, job.OptimizingJobID)
	if err != nil {
		return err
	}

	isNew := existing == nil
	if existing != nil {
		if _, derr := types.DecodeOptimizingJob(existing); derr != nil {
			s.logger.Warn().
				Str("optimizing_job_id", job.OptimizingJobID).
				Err(derr).
				Msg("existing optimizing job record is unreadable, rewriting through folder path")
			isNew = true
		}
	}

	if !isNew {
		return s.env.Put(nil, CollectionOptimizingJob, job.OptimizingJobID, job.Encode())
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
	folder.AddOptimizingJobID(job.OptimizingJobID)

	if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionOptimizingJob, job.OptimizingJobID, job.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// RemoveOptimizingJob deletes an optimizing job and drops it from its
// folder's membership in one transaction. The iteration jobs it
// references are untouched; they are owned by the folder directly. An
// unreadable record is deleted bare.
func (s *Store) RemoveOptimizingJob(optimizingJobID string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	data, err := s.env.Get(nil, CollectionOptimizingJob, optimizingJobID)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such optimizing job: %s", optimizingJobID)
	}

	job, derr := types.DecodeOptimizingJob(data)
	if derr != nil {
		s.logger.Warn().
			Str("optimizing_job_id", optimizingJobID).
			Err(derr).
			Msg("optimizing job record is unreadable, deleting without folder bookkeeping")
		return s.env.Delete(nil, CollectionOptimizingJob, optimizingJobID)
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
		folder.RemoveOptimizingJobID(optimizingJobID)
		if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
			s.abort(txn)
			return err
		}
	}
	if err := s.env.Delete(txn, CollectionOptimizingJob, optimizingJobID); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// MoveOptimizingJob relocates an optimizing job between folders in one
// transaction.
func (s *Store) MoveOptimizingJob(optimizingJobID, sourceFolder, destFolder string) error {
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

	data, err := s.env.Get(txn, CollectionOptimizingJob, optimizingJobID)
	if err != nil {
		s.abort(txn)
		return err
	}
	if data == nil {
		s.abort(txn)
		return fmt.Errorf("no such optimizing job: %s", optimizingJobID)
	}
	job, err := types.DecodeOptimizingJob(data)
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

	src.RemoveOptimizingJobID(optimizingJobID)
	dst.AddOptimizingJobID(optimizingJobID)
	job.FolderName = destFolder

	if err := s.env.Put(txn, CollectionFolder, src.Name, src.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionFolder, dst.Name, dst.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionOptimizingJob, optimizingJobID, job.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// GetOptimizingJob returns the optimizing job, or (nil, nil) when absent.
func (s *Store) GetOptimizingJob(optimizingJobID string) (*types.OptimizingJob, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionOptimizingJob, optimizingJobID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeOptimizingJob(data)
}

// GetOptimizingJobs returns every optimizing job a folder lists. Dangling
// references are logged and skipped.
func (s *Store) GetOptimizingJobs(folderName string) ([]*types.OptimizingJob, error) {
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

	jobs := make([]*types.OptimizingJob, 0, len(folder.OptimizingJobIDs))
	for _, id := range folder.OptimizingJobIDs {
		data, err := s.env.Get(nil, CollectionOptimizingJob, id)
		if err != nil {
			return nil, err
		}
		if data == nil {
			s.logger.Warn().Str("optimizing_job_id", id).Msg("referenced optimizing job record is missing")
			continue
		}
		job, err := types.DecodeOptimizingJob(data)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
