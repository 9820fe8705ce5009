package starknet

import (
	"errors"
	"fmt"
)

// TransientStreamError marks a transport-level termination. The supervisor restarts on it.
type TransientStreamError struct {
	Err error
}

func (e *TransientStreamError) Error() string {
	return fmt.Sprintf("transient stream error: %v", e.Err)
}

func (e *TransientStreamError) Unwrap() error {
	return e.Err
}

// MalformedBlockError is fatal for the block: nothing of it is committed.
type MalformedBlockError struct {
	Height uint64
	Err    error
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed block %d: %v", e.Height, e.Err)
}

func (e *MalformedBlockError) Unwrap() error {
	return e.Err
}

// PersistenceError means the block unit was rolled back and the checkpoint did not move.
type PersistenceError struct {
	Height uint64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist block %d: %v", e.Height, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var transient *TransientStreamError
	return errors.As(err, &transient)
}
