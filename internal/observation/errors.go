package observation

import (
	"errors"
	"fmt"
)

// ErrDecodeFailure matches every *DecodeError.
var ErrDecodeFailure = errors.New("snapshot decode failure")

// DecodeError is returned by Load when the durable slot holds something
// that is not a valid snapshot. The store has already fallen back to an
// empty sequence when this is returned.
type DecodeError struct {
	Slot     string
	Archived bool // raw bytes were set aside before falling back
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode snapshot from %s (archived=%v): %v", e.Slot, e.Archived, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailure }

// PersistError is returned by Add when the snapshot could not be written.
// The observation was not kept.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return "persist snapshot: " + e.Err.Error() }

func (e *PersistError) Unwrap() error { return e.Err }
