package storage

import (
	"fmt"
	"sort"

	"github.com/cuemby/loadstore/pkg/types"
)

func (s *Store) getFolderInTxn(txn *Txn, name string) (*types.JobFolder, error) {
	data, err := s.env.Get(txn, CollectionFolder, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeJobFolder(data)
}

// GetFolder returns the named real folder, or (nil, nil) when absent.
func (s *Store) GetFolder(name string) (*types.JobFolder, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.getFolderInTxn(nil, name)
}

// FolderExists reports whether the named real folder exists.
func (s *Store) FolderExists(name string) (bool, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return false, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionFolder, name)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// GetFolders returns every real folder, with the default folder first and
// the rest sorted by name.
func (s *Store) GetFolders() ([]*types.JobFolder, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	var folders []*types.JobFolder
	var decodeErr error
	err = s.env.Scan(CollectionFolder, func(key string, value []byte) error {
		f, err := types.DecodeJobFolder(value)
		if err != nil {
			decodeErr = err
			return err
		}
		folders = append(folders, f)
		return nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(folders, func(i, j int) bool {
		if folders[i].Name == types.FolderNameUnclassified {
			return true
		}
		if folders[j].Name == types.FolderNameUnclassified {
			return false
		}
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}

// WriteFolder persists the folder record as-is. Parent bookkeeping is the
// caller's concern; CreateFolder handles it for new folders.
func (s *Store) WriteFolder(folder *types.JobFolder) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	return s.env.Put(nil, CollectionFolder, folder.Name, folder.Encode())
}

// CreateFolder persists a new folder and, when it has a parent, registers
// it in the parent's child list in the same transaction. Creating a
// folder that already exists is an error.
func (s *Store) CreateFolder(folder *types.JobFolder) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	existing, err := s.env.Get(txn, CollectionFolder, folder.Name)
	if err != nil {
		s.abort(txn)
		return err
	}
	if existing != nil {
		s.abort(txn)
		return fmt.Errorf("folder already exists: %s", folder.Name)
	}

	if folder.Parent != "" {
		parent, err := s.getFolderInTxn(txn, folder.Parent)
		if err != nil {
			s.abort(txn)
			return err
		}
		if parent == nil {
			s.abort(txn)
			return fmt.Errorf("no such folder: %s", folder.Parent)
		}
		parent.AddChildName(folder.Name)
		if err := s.env.Put(txn, CollectionFolder, parent.Name, parent.Encode()); err != nil {
			s.abort(txn)
			return err
		}
	}

	if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// RemoveFolder deletes a real folder. A folder with child folders cannot
// be removed at all; a folder with jobs, optimizing jobs, or files can be
// removed only with deleteContents, in which case every contained record
// and the folder itself go in one transaction. Any failure leaves
// everything in place.
func (s *Store) RemoveFolder(name string, deleteContents bool) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	folder, err := s.getFolderInTxn(txn, name)
	if err != nil {
		s.abort(txn)
		return err
	}
	if folder == nil {
		s.abort(txn)
		return fmt.Errorf("no such folder: %s", name)
	}

	if len(folder.ChildNames) > 0 {
		s.abort(txn)
		return fmt.Errorf("cannot remove folder %s: %w", name, ErrFolderHasChildren)
	}
	hasContents := len(folder.JobIDs) > 0 || len(folder.OptimizingJobIDs) > 0 || len(folder.FileNames) > 0
	if hasContents && !deleteContents {
		s.abort(txn)
		return fmt.Errorf("cannot remove folder %s: %w", name, ErrFolderNotEmpty)
	}

	for _, jobID := range folder.JobIDs {
		if err := s.env.Delete(txn, CollectionJob, jobID); err != nil {
			s.abort(txn)
			return err
		}
	}
	for _, optID := range folder.OptimizingJobIDs {
		if err := s.env.Delete(txn, CollectionOptimizingJob, optID); err != nil {
			s.abort(txn)
			return err
		}
	}
	for _, fileName := range folder.FileNames {
		if err := s.env.Delete(txn, CollectionFile, fileKey(name, fileName)); err != nil {
			s.abort(txn)
			return err
		}
	}

	if folder.Parent != "" {
		parent, err := s.getFolderInTxn(txn, folder.Parent)
		if err != nil {
			s.abort(txn)
			return err
		}
		if parent != nil {
			parent.RemoveChildName(name)
			if err := s.env.Put(txn, CollectionFolder, parent.Name, parent.Encode()); err != nil {
				s.abort(txn)
				return err
			}
		}
	}

	if err := s.env.Delete(txn, CollectionFolder, name); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Commit(txn); err != nil {
		return err
	}

	// Deleted jobs drop out of the derived sets.
	for _, jobID := range folder.JobIDs {
		if err := s.reclassifyJob(jobID, types.JobStateUnknown); err != nil {
			return err
		}
	}
	return nil
}

// Virtual folders are saved views over jobs owned elsewhere; they have no
// membership bookkeeping of their own.

// GetVirtualFolder returns the named virtual folder, or (nil, nil) when
// absent.
func (s *Store) GetVirtualFolder(name string) (*types.JobFolder, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionVirtualFolder, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeJobFolder(data)
}

// GetVirtualFolders returns every virtual folder, sorted by name.
func (s *Store) GetVirtualFolders() ([]*types.JobFolder, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	var folders []*types.JobFolder
	var decodeErr error
	err = s.env.Scan(CollectionVirtualFolder, func(key string, value []byte) error {
		f, err := types.DecodeJobFolder(value)
		if err != nil {
			decodeErr = err
			return err
		}
		folders = append(folders, f)
		return nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// WriteVirtualFolder persists a virtual folder, marking it virtual.
func (s *Store) WriteVirtualFolder(folder *types.JobFolder) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	folder.Virtual = true
	return s.env.Put(nil, CollectionVirtualFolder, folder.Name, folder.Encode())
}

// RemoveVirtualFolder deletes a virtual folder. The jobs it references
// are untouched.
func (s *Store) RemoveVirtualFolder(name string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionVirtualFolder, name)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such virtual folder: %s", name)
	}
	return s.env.Delete(nil, CollectionVirtualFolder, name)
}
