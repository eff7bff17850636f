package chat

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/wtask/linechat/internal/chat/conn"
)

// ServerOption - customizes a Server.
type ServerOption func(s *Server) error

func setup(s *Server, options ...ServerOption) error {
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - overwrites default logger (slog.Default) of the server and of its broker.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) error {
		if log == nil {
			return errors.New("chat.WithLogger: logger is nil")
		}
		s.log = log
		return nil
	}
}

// WithClock - overwrites the clock used for accept backoff and shutdown timeout.
func WithClock(clock clockwork.Clock) ServerOption {
	return func(s *Server) error {
		if clock == nil {
			return errors.New("chat.WithClock: clock is nil")
		}
		s.clock = clock
		return nil
	}
}

// WithConnectionLimit - limits the number of concurrent connections, zero is unlimited.
func WithConnectionLimit(max int) ServerOption {
	return func(s *Server) error {
		if max < 0 {
			return fmt.Errorf("chat.WithConnectionLimit: invalid limit (%d)", max)
		}
		s.limiter = NewConnectionLimiter(int64(max))
		return nil
	}
}

// WithMaxLineBytes - limits size of inbound line for every accepted connection.
func WithMaxLineBytes(n int) ServerOption {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("chat.WithMaxLineBytes: invalid size (%d)", n)
		}
		s.maxLineBytes = n
		return nil
	}
}

// WithConnectionOptions - options applied to every accepted connection.
func WithConnectionOptions(options ...conn.Option) ServerOption {
	return func(s *Server) error {
		s.connOptions = append(s.connOptions, options...)
		return nil
	}
}
