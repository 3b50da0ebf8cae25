package pieceset

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeTooSmall is returned when a set is built with a negative
	// capacity, or with content for a capacity of zero.
	ErrSizeTooSmall = errors.New("size too small")

	// ErrOutOfBounds is returned when a wire payload does not match the
	// declared capacity: wrong byte length, or nonzero padding bits.
	ErrOutOfBounds = errors.New("content out of bounds")
)

// ErrIndexOutOfRange indicates an index outside [0, Cap) was passed to a
// mutating operation.
type ErrIndexOutOfRange struct {
	Index int
	Cap   int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Cap)
}

// ErrCapacityMismatch indicates a binary set operation between sets of
// different capacity.
type ErrCapacityMismatch struct {
	Left  int
	Right int
}

func (e *ErrCapacityMismatch) Error() string {
	return fmt.Sprintf("capacity mismatch: %d vs %d", e.Left, e.Right)
}
