package board

import (
	"errors"
	"fmt"
)

var (
	ErrNoop              = errors.New("move does not change the board")
	ErrRollLocked        = errors.New("roll is locked")
	ErrRollNotFound      = errors.New("roll not found")
	ErrOrderNotFound     = errors.New("order not found in source container")
	ErrInvalidIndex      = errors.New("destination index out of range")
	ErrInvalidRollName   = errors.New("roll name must not be empty")
	ErrInvalidCapacity   = errors.New("roll capacity must be a positive number of meters")
	ErrInvariantViolated = errors.New("board invariant violated")
)

// ErrPersistFailed wraps a server error for a mutation that was already
// applied locally and has been rolled back.
type ErrPersistFailed struct {
	Op  string
	Err error
}

func (e *ErrPersistFailed) Error() string {
	return fmt.Errorf("failed to persist %s: %w", e.Op, e.Err).Error()
}

func (e *ErrPersistFailed) Unwrap() error {
	return e.Err
}

type ErrUnassignFailed struct {
	OrderID int64
	Done    int
	Total   int
	Err     error
}

func (e *ErrUnassignFailed) Error() string {
	return fmt.Sprintf("failed to unassign order %d after %d of %d: %s", e.OrderID, e.Done, e.Total, e.Err)
}

func (e *ErrUnassignFailed) Unwrap() error {
	return e.Err
}
