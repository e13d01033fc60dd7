package messenger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a rejected candidate. The wrapped message says
	// which rule failed.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrInUse is returned when deleting an entity that is still referenced.
	ErrInUse              = errors.New("still referenced")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate is reported by a store when a unique constraint fires.
	ErrDuplicate = errors.New("duplicate key")
	// ErrReference is reported by a store when a foreign key fires.
	ErrReference = errors.New("foreign key violation")
)

// StorageError wraps a failure of the persistence gateway.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// lookupErr passes ErrNotFound through untouched and wraps everything else.
func lookupErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return storageErr(op, err)
}
