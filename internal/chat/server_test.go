package chat

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wtask/linechat/internal/mocks"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// testPeer - raw line client of the chat server.
type testPeer struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialPeer(test *testing.T, address string) *testPeer {
	test.Helper()
	c, err := net.Dial("tcp", address)
	require.NoError(test, err)
	test.Cleanup(func() { c.Close() })
	return &testPeer{conn: c, reader: bufio.NewReader(c)}
}

// joinPeer - connects new peer and waits for its own join notice.
func joinPeer(test *testing.T, address string) *testPeer {
	test.Helper()
	p := dialPeer(test, address)
	p.expect(test, "peer joined: "+p.identity())
	return p
}

func (p *testPeer) identity() string {
	return p.conn.LocalAddr().String()
}

func (p *testPeer) send(test *testing.T, text string) {
	test.Helper()
	_, err := p.conn.Write([]byte(text + "\r\n"))
	require.NoError(test, err)
}

func (p *testPeer) readLine(test *testing.T) (string, error) {
	test.Helper()
	require.NoError(test, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	got, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return got[:len(got)-2], nil
}

func (p *testPeer) expect(test *testing.T, lines ...string) {
	test.Helper()
	for _, want := range lines {
		got, err := p.readLine(test)
		require.NoError(test, err, "waiting for %q", want)
		assert.Equal(test, want, got)
	}
}

func (p *testPeer) expectEOF(test *testing.T) {
	test.Helper()
	_, err := p.readLine(test)
	assert.ErrorIs(test, err, io.EOF)
}

// startServer - serves loopback listener in background, the server is shut down on cleanup.
func startServer(test *testing.T, options ...ServerOption) (*Server, string) {
	test.Helper()
	s, err := NewServer(DefaultBroker(0), append([]ServerOption{WithLogger(quietLog)}, options...)...)
	require.NoError(test, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()
	test.Cleanup(func() {
		s.Shutdown(time.Second)
		select {
		case err := <-served:
			assert.ErrorIs(test, err, ErrServerClosed)
		case <-time.After(time.Second):
			test.Error("Serve has not returned after shutdown")
		}
	})
	return s, ln.Addr().String()
}

func TestNewServer_InvalidArguments(test *testing.T) {
	cases := []struct {
		name    string
		builder BrokerBuilder
		option  ServerOption
	}{
		{"nil builder", nil, nil},
		{"nil logger", DefaultBroker(0), WithLogger(nil)},
		{"nil clock", DefaultBroker(0), WithClock(nil)},
		{"negative connection limit", DefaultBroker(0), WithConnectionLimit(-1)},
		{"zero line size", DefaultBroker(0), WithMaxLineBytes(0)},
		{"negative history", DefaultBroker(-1), nil},
	}
	for _, c := range cases {
		test.Run(c.name, func(test *testing.T) {
			s, err := NewServer(c.builder, c.option)
			assert.Error(test, err)
			assert.Nil(test, s)
		})
	}
}

func TestServer_Broadcast(test *testing.T) {
	s, address := startServer(test)
	x := joinPeer(test, address)
	y := joinPeer(test, address)
	x.expect(test, "peer joined: "+y.identity())

	// When X sends a line, both X and Y receive exactly it
	x.send(test, "hello")
	x.expect(test, "hello")
	y.expect(test, "hello")

	// When Z connects, X and Y are notified
	z := joinPeer(test, address)
	x.expect(test, "peer joined: "+z.identity())
	y.expect(test, "peer joined: "+z.identity())
	assert.Equal(test, 3, s.Broker().Len())
	assert.Equal(test, int64(3), s.Live())

	// When Y is killed, X and Z are notified and Y is removed
	left := y.identity()
	require.NoError(test, y.conn.Close())
	x.expect(test, "peer left: "+left)
	z.expect(test, "peer left: "+left)
	assert.Equal(test, 2, s.Broker().Len())
	assert.Eventually(test, func() bool { return s.Live() == 2 }, time.Second, 5*time.Millisecond)
}

func TestServer_ConcurrentSenders(test *testing.T) {
	_, address := startServer(test)
	x := joinPeer(test, address)
	y := joinPeer(test, address)
	x.expect(test, "peer joined: "+y.identity())

	wg := sync.WaitGroup{}
	for _, s := range []struct {
		p    *testPeer
		text string
	}{{x, "a"}, {y, "b"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.p.conn.Write([]byte(s.text + "\r\n"))
			assert.NoError(test, err)
		}()
	}
	wg.Wait()

	for _, p := range []*testPeer{x, y} {
		first, err := p.readLine(test)
		require.NoError(test, err)
		second, err := p.readLine(test)
		require.NoError(test, err)
		assert.ElementsMatch(test, []string{"a", "b"}, []string{first, second})
	}
}

func TestServer_FailedPeerIsDropped(test *testing.T) {
	s, address := startServer(test)
	x := joinPeer(test, address)

	ctrl := gomock.NewController(test)
	transport := mocks.NewMockTransport(ctrl)
	closed := make(chan struct{})
	transport.EXPECT().RemoteAddr().Return(&net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 6000}).AnyTimes()
	transport.EXPECT().ReadLine().DoAndReturn(func() (string, error) {
		<-closed
		return "", net.ErrClosed
	}).Times(1)
	transport.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	}).Times(1)
	gomock.InOrder(
		transport.EXPECT().WriteLine("peer joined: 10.0.0.2:6000").Return(nil),
		transport.EXPECT().WriteLine("hello").Return(net.ErrClosed),
	)
	failing, err := s.Attach(transport)
	require.NoError(test, err)
	x.expect(test, "peer joined: 10.0.0.2:6000")

	// When X sends while the other peer is broken
	x.send(test, "hello")

	// Then X still receives its line and the broken peer leaves
	first, err := x.readLine(test)
	require.NoError(test, err)
	second, err := x.readLine(test)
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"hello", "peer left: 10.0.0.2:6000"}, []string{first, second})
	<-failing.Done()
	assert.Equal(test, 1, s.Broker().Len())
}

func TestServer_ConnectionLimit(test *testing.T) {
	s, address := startServer(test, WithConnectionLimit(1))
	x := joinPeer(test, address)

	y := dialPeer(test, address)
	y.expectEOF(test)
	assert.Equal(test, int64(1), s.Live())

	// slot is released after disconnection
	require.NoError(test, x.conn.Close())
	assert.Eventually(test, func() bool { return s.Live() == 0 }, time.Second, 5*time.Millisecond)
	joinPeer(test, address)
}

// flakyListener - fails first accepts with temporary error.
type flakyListener struct {
	net.Listener
	mu       sync.Mutex
	failures int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return nil, errors.New("accept: too many open files")
	}
	l.mu.Unlock()
	return l.Listener.Accept()
}

func TestServer_Serve_AcceptErrorContinues(test *testing.T) {
	s, err := NewServer(DefaultBroker(0), WithLogger(quietLog))
	require.NoError(test, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(&flakyListener{Listener: ln, failures: 3}) }()

	// server is still accepting after failures
	joinPeer(test, ln.Addr().String())

	s.Shutdown(time.Second)
	assert.ErrorIs(test, <-served, ErrServerClosed)
}

func TestServer_Serve_ListenerClosedOutside(test *testing.T) {
	s, err := NewServer(DefaultBroker(0), WithLogger(quietLog))
	require.NoError(test, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()
	require.NoError(test, ln.Close())

	select {
	case err := <-served:
		var acceptErr *AcceptError
		assert.ErrorAs(test, err, &acceptErr)
		assert.ErrorIs(test, err, net.ErrClosed)
	case <-time.After(time.Second):
		test.Fatal("Serve has not returned")
	}
	s.Shutdown(time.Second)
}

func TestServer_Shutdown(test *testing.T) {
	s, err := NewServer(DefaultBroker(0), WithLogger(quietLog))
	require.NoError(test, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	x := joinPeer(test, ln.Addr().String())

	// When the server is shut down
	s.Shutdown(time.Second)

	// Then connections are closed and Serve returns
	x.expectEOF(test)
	assert.ErrorIs(test, <-served, ErrServerClosed)
	assert.Equal(test, 0, s.Broker().Len())
	assert.Equal(test, int64(0), s.Live())

	// And the server does not accept anything anymore
	assert.Equal(test, time.Duration(0), s.Shutdown(time.Second))
	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(test, err)
	assert.ErrorIs(test, s.Serve(ln2), ErrServerClosed)

	ctrl := gomock.NewController(test)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Close().Return(nil).Times(1)
	_, err = s.Attach(transport)
	assert.ErrorIs(test, err, ErrServerClosed)
}

func TestServer_Shutdown_Timeout(test *testing.T) {
	clock := clockwork.NewFakeClock()
	s, err := NewServer(DefaultBroker(0), WithLogger(quietLog), WithClock(clock))
	require.NoError(test, err)

	// connection which never finishes its receive loop
	ctrl := gomock.NewController(test)
	transport := mocks.NewMockTransport(ctrl)
	release := make(chan struct{})
	transport.EXPECT().RemoteAddr().Return(&net.TCPAddr{IP: net.IPv4(10, 0, 0, 3), Port: 7000}).AnyTimes()
	transport.EXPECT().WriteLine(gomock.Any()).Return(nil).AnyTimes()
	transport.EXPECT().ReadLine().DoAndReturn(func() (string, error) {
		<-release
		return "", net.ErrClosed
	}).Times(1)
	transport.EXPECT().Close().Return(nil).Times(1)
	c, err := s.Attach(transport)
	require.NoError(test, err)
	test.Cleanup(func() {
		close(release)
		<-c.Done()
	})

	elapsed := make(chan time.Duration, 1)
	go func() { elapsed <- s.Shutdown(5 * time.Second) }()

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	select {
	case d := <-elapsed:
		assert.Equal(test, 5*time.Second, d)
	case <-time.After(time.Second):
		test.Fatal("Shutdown has not returned after timeout")
	}
}
