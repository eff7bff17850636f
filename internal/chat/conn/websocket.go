package conn

import (
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wtask/linechat/internal/chat/line"
)

type websocketTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport - builds line transport over upgraded WebSocket connection.
// Every text frame carries exactly one line, binary frames are ignored.
func NewWebSocketTransport(c *websocket.Conn, maxLineBytes int) Transport {
	if maxLineBytes <= 0 {
		maxLineBytes = line.DefaultMaxBytes
	}
	c.SetReadLimit(int64(maxLineBytes))
	return &websocketTransport{conn: c}
}

func (t *websocketTransport) ReadLine() (string, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return line.Decode(string(data)), nil
	}
}

func (t *websocketTransport) WriteLine(text string) error {
	return t.conn.WriteMessage(websocket.TextMessage, []byte(line.Sanitize(text)))
}

func (t *websocketTransport) SetWriteDeadline(deadline time.Time) error {
	return t.conn.SetWriteDeadline(deadline)
}

func (t *websocketTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

func (t *websocketTransport) Close() error {
	return t.conn.Close()
}
