package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType indicates a kind that is not in the registry.
	ErrUnknownType = errors.New("unknown activity type")
	// ErrInactiveType indicates a kind that is registered but no longer produced.
	ErrInactiveType = errors.New("inactive activity type")
	// ErrSideDataMismatch indicates side-data that does not match the kind's schema.
	ErrSideDataMismatch = errors.New("side-data does not match activity type")
	// ErrMissingSideData indicates a related_obj_id whose row no longer exists.
	ErrMissingSideData = errors.New("missing side-data")
	// ErrInvalidInput indicates invalid producer or consumer input.
	ErrInvalidInput = errors.New("invalid activity input")
)

// StorageError reports that the backing store rejected a read or a write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("activity storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err unless it already is a StorageError or a domain error.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	for _, domain := range []error{ErrUnknownType, ErrInactiveType, ErrSideDataMismatch, ErrInvalidInput} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}
