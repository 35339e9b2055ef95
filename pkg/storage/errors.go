package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvClosed is returned when an operation reaches an environment
	// that has been shut down.
	ErrEnvClosed = errors.New("storage environment is closed")

	// ErrStoreClosed is returned when the collections are not open.
	ErrStoreClosed = errors.New("store collections are not open")

	// ErrReadOnly is returned by mutating operations on a store opened
	// in read-only mode.
	ErrReadOnly = errors.New("store is open read-only")

	// ErrFolderHasChildren blocks deletion of a folder that still has
	// child folders; children must be removed or reparented first.
	ErrFolderHasChildren = errors.New("folder has child folders")

	// ErrFolderNotEmpty blocks deletion of a folder that still contains
	// jobs, optimizing jobs, or files when the caller did not ask for
	// the contents to be deleted too.
	ErrFolderNotEmpty = errors.New("folder is not empty")
)

// StorageError wraps an engine-level failure with the operation that hit
// it. Engine errors are never surfaced bare.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageErr(op string, cause error) error {
	return &StorageError{Op: op, Cause: cause}
}
