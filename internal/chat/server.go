// Package chat implements line chat server and terminal client.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wtask/linechat/internal/chat/broker"
	"github.com/wtask/linechat/internal/chat/conn"
	"github.com/wtask/linechat/internal/chat/line"
	"github.com/wtask/linechat/internal/metrics"
	"github.com/wtask/linechat/pkg/background"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server - represents chat server over any net.Listener implementation.
type Server struct {
	log          *slog.Logger
	clock        clockwork.Clock
	limiter      *ConnectionLimiter
	maxLineBytes int
	connOptions  []conn.Option

	broker *broker.Broker
	scope  *background.Scope

	mu        sync.Mutex
	closed    bool
	listeners map[net.Listener]struct{}
	conns     map[*conn.Connection]struct{}
}

// NewServer - creates new chat server which ready to serve several network listeners.
func NewServer(buildBroker BrokerBuilder, options ...ServerOption) (*Server, error) {
	if buildBroker == nil {
		return nil, errors.New("chat.NewServer: required chat.BrokerBuilder is nil")
	}
	s := &Server{
		log:          slog.Default(),
		clock:        clockwork.NewRealClock(),
		limiter:      NewConnectionLimiter(0),
		maxLineBytes: line.DefaultMaxBytes,
		listeners:    make(map[net.Listener]struct{}),
		conns:        make(map[*conn.Connection]struct{}),
	}
	if err := setup(s, options...); err != nil {
		return nil, err
	}
	b, err := buildBroker(s.log)
	if err != nil {
		return nil, fmt.Errorf("chat.NewServer: can't build broker: %w", err)
	}
	s.broker = b
	s.scope, _ = background.NewScope()
	// conn.WithLogger goes first, so explicit connection options can overwrite it
	s.connOptions = append([]conn.Option{conn.WithLogger(s.log)}, s.connOptions...)
	return s, nil
}

// Broker - returns the broker which keeps connections of the server.
func (s *Server) Broker() *broker.Broker {
	return s.broker
}

// MaxLineBytes - returns the inbound line limit, useful to build transports outside of the server.
func (s *Server) MaxLineBytes() int {
	return s.maxLineBytes
}

// Live - returns number of connections currently held by the server.
func (s *Server) Live() int64 {
	return s.limiter.Current()
}

// Serve - accepts connections on the listener until Shutdown is called.
// Temporary accept failures are logged and the loop continues after short delay.
// Always returns non-nil error: ErrServerClosed after Shutdown
// or *AcceptError if the listener was closed outside of the server.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return errors.New("chat.Server.Serve: listener is nil")
	}
	if !s.trackListener(listener) {
		listener.Close()
		return ErrServerClosed
	}
	defer s.untrackListener(listener)

	var delay time.Duration
	for {
		rw, err := listener.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			acceptErr := &AcceptError{Err: err}
			if errors.Is(err, net.ErrClosed) {
				return acceptErr
			}
			metrics.AcceptErrors.Inc()
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.log.Error("Accept failed", "error", acceptErr, "retry_in", delay)
			select {
			case <-s.clock.After(delay):
			case <-s.scope.Context().Done():
				return ErrServerClosed
			}
			continue
		}
		delay = 0
		metrics.ConnectionsTotal.WithLabelValues("tcp").Inc()
		if _, err := s.Attach(conn.NewTCPTransport(rw, s.maxLineBytes)); err != nil {
			s.log.Warn("Connection is not attached", "remote", rw.RemoteAddr().String(), "error", err)
		}
	}
}

// Attach - starts to serve already established transport (accepted socket, upgraded WebSocket etc).
// If the transport can not be served, it is closed and error is returned.
func (s *Server) Attach(t conn.Transport) (*conn.Connection, error) {
	if t == nil {
		return nil, errors.New("chat.Server.Attach: transport is nil")
	}
	if !s.limiter.Acquire() {
		metrics.ConnectionsRejected.Inc()
		t.Close()
		return nil, ErrConnectionLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.limiter.Release()
		t.Close()
		return nil, ErrServerClosed
	}
	c, err := conn.New(t, s.broker, s.connOptions...)
	if err != nil {
		s.limiter.Release()
		t.Close()
		return nil, fmt.Errorf("chat.Server.Attach: %w", err)
	}
	s.conns[c] = struct{}{}
	s.scope.Go(func(_ context.Context) {
		<-c.Done()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.limiter.Release()
	})
	return c, nil
}

// Shutdown - stops server with the specified timeout and returns stopping duration.
// Listeners are closed, live connections are closed and the server waits for their goroutines.
// Returns zero if the server is stopped already.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	from := s.clock.Now()
	s.closed = true
	s.scope.Cancel()
	for l := range s.listeners {
		l.Close()
	}
	conns := make([]*conn.Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.broker.Quit()
	for _, c := range conns {
		c.Close()
	}

	select {
	case <-s.scope.Wait():
	case <-s.clock.After(timeout):
		// connections are closed, their goroutines are left to finish in background
		s.log.Warn("Shutdown timeout is exceeded", "timeout", timeout)
	}
	return s.clock.Since(from)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) trackListener(l net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[l] = struct{}{}
	s.scope.Add(1)
	return true
}

func (s *Server) untrackListener(l net.Listener) {
	s.mu.Lock()
	delete(s.listeners, l)
	s.mu.Unlock()
	s.scope.Done()
}
