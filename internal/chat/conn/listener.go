package conn

//go:generate mockgen -destination=../../mocks/conn_mock.go -package=mocks . Listener,Transport

// Listener - receives lifecycle and data events of a Connection.
//
// OnConnected, OnMessage and OnDisconnected are always called from the receive goroutine
// of the connection in that order, OnDisconnected exactly once.
// OnError is called from the receive goroutine for receive errors
// and from the caller goroutine of Send or Close for send and close errors.
type Listener interface {
	OnConnected(c *Connection)
	OnDisconnected(c *Connection)
	OnMessage(c *Connection, text string)
	OnError(c *Connection, err error)
}
