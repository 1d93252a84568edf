package notify

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports malformed input: a negative wait
	// duration or a non-positive channel count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange reports a channel index outside the constructed set.
	ErrOutOfRange = errors.New("channel index out of range")

	// ErrClosed reports an operation on a channel that has been shut down.
	ErrClosed = errors.New("channel is closed")
)

// ConstructionError reports the index at which registry construction
// failed. By the time the caller sees it, every channel built before the
// failing index has already been torn down.
type ConstructionError struct {
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing channel %d: %v", e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
