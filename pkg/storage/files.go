package storage

import (
	"fmt"

	"github.com/cuemby/loadstore/pkg/types"
)

// fileKey builds the composite key an uploaded file is stored under. The
// folder's own membership list tracks the bare file name.
func fileKey(folderName, fileName string) string {
	return folderName + "\t" + fileName
}

// WriteUploadedFile persists a file into a folder. An existing readable
// record under the same composite key is overwritten alone; a new one is
// written with the folder-membership update in one transaction.
func (s *Store) WriteUploadedFile(folderName string, file *types.UploadedFile) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	key := fileKey(folderName, file.Name)
	existing, err := s.env.Get(nil, CollectionFile, key)
	if err != nil {
		return err
	}

	isNew := existing == nil
	if existing != nil {
		if _, derr := types.DecodeUploadedFileWithoutData(existing); derr != nil {
			s.logger.Warn().
				Str("file", key).
				Err(derr).
				Msg("existing file record is unreadable, rewriting through folder path")
			isNew = true
		}
	}

	if !isNew {
		return s.env.Put(nil, CollectionFile, key, file.Encode())
	}

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	folder, err := s.getFolderInTxn(txn, folderName)
	if err != nil {
		s.abort(txn)
		return err
	}
	if folder == nil {
		s.abort(txn)
		return fmt.Errorf("no such folder: %s", folderName)
	}
	folder.AddFileName(file.Name)

	if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	if err := s.env.Put(txn, CollectionFile, key, file.Encode()); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// RemoveUploadedFile deletes a file and drops it from its folder's
// membership in one transaction.
func (s *Store) RemoveUploadedFile(folderName, fileName string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()

	key := fileKey(folderName, fileName)
	data, err := s.env.Get(nil, CollectionFile, key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such file: %s in folder %s", fileName, folderName)
	}

	txn, err := s.env.Begin(true)
	if err != nil {
		return err
	}

	folder, err := s.getFolderInTxn(txn, folderName)
	if err != nil {
		s.abort(txn)
		return err
	}
	if folder != nil {
		folder.RemoveFileName(fileName)
		if err := s.env.Put(txn, CollectionFolder, folder.Name, folder.Encode()); err != nil {
			s.abort(txn)
			return err
		}
	}
	if err := s.env.Delete(txn, CollectionFile, key); err != nil {
		s.abort(txn)
		return err
	}
	return s.env.Commit(txn)
}

// GetUploadedFile returns the file with its payload, or (nil, nil) when
// absent.
func (s *Store) GetUploadedFile(folderName, fileName string) (*types.UploadedFile, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionFile, fileKey(folderName, fileName))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeUploadedFile(data)
}

// GetUploadedFileWithoutData returns the file's metadata only, for
// listings.
func (s *Store) GetUploadedFileWithoutData(folderName, fileName string) (*types.UploadedFile, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionFile, fileKey(folderName, fileName))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeUploadedFileWithoutData(data)
}

// GetUploadedFiles returns metadata for every file a folder lists.
// Dangling references are logged and skipped.
func (s *Store) GetUploadedFiles(folderName string) ([]*types.UploadedFile, error) {
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

	files := make([]*types.UploadedFile, 0, len(folder.FileNames))
	for _, name := range folder.FileNames {
		data, err := s.env.Get(nil, CollectionFile, fileKey(folderName, name))
		if err != nil {
			return nil, err
		}
		if data == nil {
			s.logger.Warn().
				Str("folder", folderName).
				Str("file", name).
				Msg("referenced file record is missing")
			continue
		}
		file, err := types.DecodeUploadedFileWithoutData(data)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
