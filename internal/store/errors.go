package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when no backend was ever configured.
	ErrNotConnected = errors.New("database not connected")
	// ErrNotFound is returned for unknown record or file ids.
	ErrNotFound = errors.New("not found")
)

// PersistenceError wraps any failure to reach or write to the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
