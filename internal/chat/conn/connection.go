// Package conn implements a line-oriented connection to a single peer.
//
// Every Connection owns a receive goroutine which is started as soon as the connection
// is created and reports events to the Listener: connected, one event per received line,
// receive error (if any) and finally disconnected, exactly once.
package conn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Connection - line stream to a single peer with its own receive loop and send path.
type Connection struct {
	id        uuid.UUID
	remote    string
	transport Transport
	listener  Listener
	log       *slog.Logger

	clock        clockwork.Clock
	writeTimeout time.Duration
	limiter      *rate.Limiter

	// ctx - cancelled on close, interrupts waiting for rate limiter
	ctx    context.Context
	cancel context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

// New - wraps already established transport and starts receive loop in background.
func New(t Transport, l Listener, options ...Option) (*Connection, error) {
	if t == nil {
		return nil, errors.New("conn.New: transport is nil")
	}
	if l == nil {
		return nil, errors.New("conn.New: listener is nil")
	}
	s, err := setup(options...)
	if err != nil {
		return nil, err
	}
	return start(t, l, s), nil
}

// Open - connects to TCP address and starts receive loop in background.
// Returns *ConnectError if the connection could not be established.
func Open(ctx context.Context, address string, l Listener, options ...Option) (*Connection, error) {
	if l == nil {
		return nil, errors.New("conn.Open: listener is nil")
	}
	s, err := setup(options...)
	if err != nil {
		return nil, err
	}
	dialer := net.Dialer{}
	c, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectError{Addr: address, Err: err}
	}
	return start(NewTCPTransport(c, s.maxLineBytes), l, s), nil
}

func start(t Transport, l Listener, s *settings) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New(),
		remote:       identity(t.RemoteAddr()),
		transport:    t,
		listener:     l,
		clock:        s.clock,
		writeTimeout: s.writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	c.log = s.log.With("conn_id", c.id.String(), "remote", c.remote)
	if s.lineRate > 0 {
		c.limiter = rate.NewLimiter(s.lineRate, s.lineBurst)
	}
	go c.receive()
	return c
}

// ID - unique id of the connection, mostly useful for logs correlation.
func (c *Connection) ID() uuid.UUID { return c.id }

// RemoteAddr - network identity of the peer.
func (c *Connection) RemoteAddr() string { return c.remote }

func (c *Connection) String() string { return c.remote }

// Done - closes after the disconnected event was handled by listener.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Closed - reports whether the connection was closed.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Send - writes the line to the peer. Safe for concurrent use.
// If the write fails, the error is reported to the listener and the connection is closed.
func (c *Connection) Send(text string) error {
	if c.closed.Load() {
		return &SendError{Addr: c.remote, Err: ErrClosed}
	}
	err := c.write(text)
	if err == nil {
		return nil
	}
	if c.closed.Load() {
		// transport was closed under our feet, nothing to report
		return &SendError{Addr: c.remote, Err: ErrClosed}
	}
	sendErr := &SendError{Addr: c.remote, Err: err}
	c.shutdown(sendErr)
	return sendErr
}

func (c *Connection) write(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.transport.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.transport.WriteLine(text)
}

// Close - stops receive loop and closes transport.
// Can be called several times and from any goroutine, only the first call has effect.
func (c *Connection) Close() {
	c.shutdown(nil)
}

// shutdown - reports the cause (if any) and closes the connection, only once.
func (c *Connection) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if cause != nil {
			c.listener.OnError(c, cause)
		}
		if err := c.transport.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.listener.OnError(c, &CloseError{Addr: c.remote, Err: err})
		}
	})
}

func (c *Connection) receive() {
	defer close(c.done)

	c.listener.OnConnected(c)
	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(c.ctx); err != nil {
				break
			}
		}
		text, err := c.transport.ReadLine()
		if err != nil {
			c.receiveFailed(err)
			break
		}
		if c.closed.Load() {
			break
		}
		c.listener.OnMessage(c, text)
	}
	c.Close()
	c.listener.OnDisconnected(c)
}

func (c *Connection) receiveFailed(err error) {
	switch {
	case c.closed.Load():
		c.log.Debug("Receive loop interrupted by close")
	case errors.Is(err, io.EOF):
		c.log.Debug("Peer finished the stream")
	default:
		c.listener.OnError(c, &ReceiveError{Addr: c.remote, Err: err})
	}
}
