package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"github.com/wtask/linechat/internal/chat/conn"
)

var (
	statusStyle = color.New(color.FgGreen)
	errorStyle  = color.New(color.FgRed)
)

// Client - terminal chat client, prints connection events and received lines.
type Client struct {
	name string

	outMu sync.Mutex
	out   io.Writer

	conn *conn.Connection
}

// Dial - connects client to the chat server.
// Returns *conn.ConnectError if the server is unreachable.
func Dial(ctx context.Context, address, name string, out io.Writer, options ...conn.Option) (*Client, error) {
	if out == nil {
		return nil, errors.New("chat.Dial: output is nil")
	}
	cl := &Client{name: name, out: out}
	c, err := conn.Open(ctx, address, cl, options...)
	if err != nil {
		return nil, err
	}
	cl.conn = c
	return cl, nil
}

// Run - sends every non-empty line from the input as "<name>: <line>".
// Returns when the input is finished, context is cancelled or the connection is lost,
// the connection is closed on return.
// Reading goroutine may outlive Run while it is blocked on the input.
func (cl *Client) Run(ctx context.Context, in io.Reader) error {
	defer cl.conn.Close()

	lines := make(chan string)
	inputErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-cl.conn.Done():
				return
			case <-ctx.Done():
				return
			}
		}
		inputErr <- scanner.Err()
	}()

	for {
		select {
		case text := <-lines:
			if text == "" {
				continue
			}
			err := cl.conn.Send(cl.format(text))
			if errors.Is(err, conn.ErrClosed) {
				return nil
			}
			if err != nil {
				return err
			}
		case err := <-inputErr:
			if err != nil {
				return fmt.Errorf("chat.Client.Run: read input: %w", err)
			}
			return nil
		case <-cl.conn.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Close - disconnects client from the server.
func (cl *Client) Close() {
	cl.conn.Close()
}

// Done - closes when the client is disconnected.
func (cl *Client) Done() <-chan struct{} {
	return cl.conn.Done()
}

func (cl *Client) format(text string) string {
	return fmt.Sprintf("%s: %s", cl.name, text)
}

func (cl *Client) print(text string) {
	cl.outMu.Lock()
	defer cl.outMu.Unlock()
	fmt.Fprintln(cl.out, text)
}

func (cl *Client) OnConnected(_ *conn.Connection) {
	cl.print(statusStyle.Render("Connection ready..."))
}

func (cl *Client) OnDisconnected(_ *conn.Connection) {
	cl.print(statusStyle.Render("Connection closed"))
}

func (cl *Client) OnMessage(_ *conn.Connection, text string) {
	cl.print(text)
}

func (cl *Client) OnError(_ *conn.Connection, err error) {
	cl.print(errorStyle.Render(fmt.Sprintf("Connection exception: %v", err)))
}
