package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrServerClosed - returns by Serve and Attach after the server was shut down.
	ErrServerClosed = errors.New("chat.Server: closed")

	// ErrConnectionLimit - returns by Attach when the server keeps the maximum number of connections.
	// The rejected transport is closed already.
	ErrConnectionLimit = errors.New("chat.Server: connection limit reached")
)

// AcceptError - one iteration of accept loop has failed.
type AcceptError struct {
	Err error
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("chat: accept: %v", e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }
