package conn

import (
	"errors"
	"fmt"
)

// ErrClosed - returns (wrapped into SendError) when sending over the connection which is closed already.
var ErrClosed = errors.New("conn.Connection: closed")

// ConnectError - transport to the peer could not be established.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("conn: connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ReceiveError - read path of the connection failed.
// The connection is disconnected just after this error is reported.
type ReceiveError struct {
	Addr string
	Err  error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("conn: receive from %s: %v", e.Addr, e.Err)
}

func (e *ReceiveError) Unwrap() error { return e.Err }

// SendError - write path of the connection failed.
// The connection closes itself after the first failed write.
type SendError struct {
	Addr string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("conn: send to %s: %v", e.Addr, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// CloseError - underlying transport reported an error while closing.
type CloseError struct {
	Addr string
	Err  error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("conn: close %s: %v", e.Addr, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }
