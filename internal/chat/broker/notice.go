package broker

import (
	"fmt"

	"github.com/wtask/linechat/internal/chat/conn"
)

// kind - broadcast kind, used as metrics label.
type kind string

const (
	kindMessage kind = "message"
	kindJoin    kind = "join"
	kindLeave   kind = "leave"
	kindGreet   kind = "greet"
)

func joinNotice(c *conn.Connection) string {
	return fmt.Sprintf("peer joined: %s", c.RemoteAddr())
}

func leaveNotice(c *conn.Connection) string {
	return fmt.Sprintf("peer left: %s", c.RemoteAddr())
}

// errorKind - label of connection error for metrics.
func errorKind(err error) string {
	switch err.(type) {
	case *conn.ReceiveError:
		return "receive"
	case *conn.SendError:
		return "send"
	case *conn.CloseError:
		return "close"
	default:
		return "other"
	}
}
