package conn

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/wtask/linechat/internal/chat/line"
)

// Transport - bidirectional line stream to a single peer.
// ReadLine is only called from the receive goroutine, WriteLine and SetWriteDeadline
// are serialized by the Connection, Close may be called concurrently with both.
type Transport interface {
	// ReadLine - blocks until the next line arrives. Returns io.EOF when the peer has finished the stream.
	ReadLine() (string, error)
	// WriteLine - writes the line followed by terminator and flushes it.
	WriteLine(text string) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	// Close - closes both directions and unblocks pending ReadLine.
	Close() error
}

type streamTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewTCPTransport - builds line transport over stream connection (TCP socket, net.Pipe etc).
func NewTCPTransport(c net.Conn, maxLineBytes int) Transport {
	return &streamTransport{
		conn:    c,
		scanner: line.NewScanner(c, maxLineBytes),
		writer:  bufio.NewWriter(c),
	}
}

func (t *streamTransport) ReadLine() (string, error) {
	if t.scanner.Scan() {
		return line.Decode(t.scanner.Text()), nil
	}
	if err := t.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (t *streamTransport) WriteLine(text string) error {
	if _, err := t.writer.Write(line.Encode(text)); err != nil {
		t.writer.Reset(t.conn)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		// drop the rest of failed line, the connection is not reused after failure
		t.writer.Reset(t.conn)
		return err
	}
	return nil
}

func (t *streamTransport) SetWriteDeadline(deadline time.Time) error {
	return t.conn.SetWriteDeadline(deadline)
}

func (t *streamTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}
