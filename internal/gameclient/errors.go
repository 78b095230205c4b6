package gameclient

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrOpponentLeft     = errors.New("opponent left")
	ErrRoomClosed       = errors.New("room closed by server")
	ErrNotSeated        = errors.New("not seated in a room")
	ErrEmptyMove        = errors.New("empty move")
	ErrStatsUnavailable = errors.New("stats unavailable")
)

// Error records the operation that failed on the way to the relay.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
