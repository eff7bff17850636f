package conn

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/wtask/linechat/internal/chat/line"
)

type settings struct {
	log          *slog.Logger
	clock        clockwork.Clock
	writeTimeout time.Duration
	maxLineBytes int
	lineRate     rate.Limit
	lineBurst    int
}

// Option - customizes a Connection.
type Option func(s *settings) error

func setup(options ...Option) (*settings, error) {
	s := &settings{
		log:          slog.Default(),
		clock:        clockwork.NewRealClock(),
		maxLineBytes: line.DefaultMaxBytes,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithLogger - overwrites default logger (slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) error {
		if log == nil {
			return errors.New("conn.WithLogger: logger is nil")
		}
		s.log = log
		return nil
	}
}

// WithClock - overwrites the clock used to calculate write deadlines.
func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) error {
		if clock == nil {
			return errors.New("conn.WithClock: clock is nil")
		}
		s.clock = clock
		return nil
	}
}

// WithWriteTimeout - limits duration of every single write.
// Zero timeout means the write may block as long as the peer does not read.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *settings) error {
		if timeout < 0 {
			return fmt.Errorf("conn.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		s.writeTimeout = timeout
		return nil
	}
}

// WithMaxLineBytes - limits size of inbound line. Longer line is a receive error.
func WithMaxLineBytes(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("conn.WithMaxLineBytes: invalid size (%d)", n)
		}
		s.maxLineBytes = n
		return nil
	}
}

// WithRateLimit - limits the number of inbound lines per second.
// Receive loop waits for the limiter, so the peer is slowed down by TCP backpressure
// and no line is dropped. Zero perSecond disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *settings) error {
		if perSecond < 0 {
			return fmt.Errorf("conn.WithRateLimit: invalid rate (%v)", perSecond)
		}
		if perSecond > 0 && burst < 1 {
			return fmt.Errorf("conn.WithRateLimit: invalid burst (%d)", burst)
		}
		s.lineRate = rate.Limit(perSecond)
		s.lineBurst = burst
		return nil
	}
}
