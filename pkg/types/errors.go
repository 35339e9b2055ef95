package types

import (
	"errors"
	"fmt"
)

// DecodeError reports that stored bytes could not be parsed into the
// expected entity. It is distinct from the "record absent" case: read
// paths surface it to the caller, while overwrite-on-write paths treat the
// unreadable record as if it were absent.
type DecodeError struct {
	Entity string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode %s: %v", e.Entity, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func decodeErr(entity string, err error) error {
	return &DecodeError{Entity: entity, Err: err}
}

func decodeErrf(entity, format string, args ...any) error {
	return &DecodeError{Entity: entity, Err: fmt.Errorf(format, args...)}
}
