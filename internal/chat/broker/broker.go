// Package broker keeps live chat connections and routes every received line to all of them.
package broker

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wtask/linechat/internal/chat/conn"
	"github.com/wtask/linechat/internal/metrics"
)

// Broker - chat connections keeper and message router.
// Broker is the listener for every server-side connection:
// it registers connection on connected event, relays its lines to all live connections
// and drops it on disconnected event.
type Broker struct {
	log     *slog.Logger
	history MessageHistory
	greets  int

	clients *registry
}

// New - builds Broker with needed options.
func New(options ...Option) (*Broker, error) {
	b := &Broker{
		log:     slog.Default(),
		clients: newRegistry(),
	}
	if err := setup(b, options...); err != nil {
		return nil, err
	}
	return b, nil
}

// Len - returns number of live connections.
func (b *Broker) Len() int {
	return b.clients.len()
}

// Peers - returns snapshot of live connections in no particular order.
func (b *Broker) Peers() []*conn.Connection {
	return b.clients.snapshot()
}

// OnConnected - registers connection, greets it with history and notifies all live connections (including new one).
// Greeting and registration are done under the registry lock, so lines broadcast meanwhile
// are neither missed nor repeated by the newcomer.
// Greet is bounded by the write timeout of the connection, broadcasts wait for it.
func (b *Broker) OnConnected(c *conn.Connection) {
	log := b.log.With("conn_id", c.ID().String(), "remote", c.RemoteAddr())
	peers, err := b.clients.add(c, b.greeter(c))
	switch {
	case errors.Is(err, ErrUnderStopCondition):
		log.Warn("Connection is dropped", "error", err)
		c.Close()
		return
	case errors.Is(err, ErrConnKept):
		log.Warn("Connection is not registered", "error", err)
		return
	case err != nil:
		// connection has closed itself, it will never be registered
		return
	}
	metrics.ConnectionsCurrent.Inc()
	log.Info("Peer joined", "live", len(peers))
	b.deliver(peers, joinNotice(c), kindJoin)
}

// greeter - returns func which sends latest history lines to the connection, nil if greets are off.
func (b *Broker) greeter(c *conn.Connection) func() error {
	if b.history == nil || b.greets <= 0 {
		return nil
	}
	return func() error {
		for _, line := range historyTail(b.history, b.greets) {
			if err := c.Send(line); err != nil {
				return err
			}
			metrics.BroadcastsTotal.WithLabelValues(string(kindGreet)).Inc()
		}
		return nil
	}
}

// OnDisconnected - removes connection and notifies all remaining connections.
// Unknown connection is ignored.
func (b *Broker) OnDisconnected(c *conn.Connection) {
	peers, ok := b.clients.delete(c)
	if !ok {
		return
	}
	metrics.ConnectionsCurrent.Dec()
	b.log.Info("Peer left", "conn_id", c.ID().String(), "remote", c.RemoteAddr(), "live", len(peers))
	b.deliver(peers, leaveNotice(c), kindLeave)
}

// OnMessage - relays the line verbatim to all live connections, the origin included.
func (b *Broker) OnMessage(c *conn.Connection, text string) {
	metrics.LinesReceived.Inc()
	b.deliver(b.clients.publish(b.history, text), text, kindMessage)
}

// OnError - logs connection error. The connection decides by its own whether to close.
func (b *Broker) OnError(c *conn.Connection, err error) {
	metrics.ConnectionErrors.WithLabelValues(errorKind(err)).Inc()
	b.log.Warn("Connection error", "conn_id", c.ID().String(), "remote", c.RemoteAddr(), "error", err)
}

// Broadcast - sends the line to all live connections.
// Failed connection does not interrupt delivery to the others.
// Returns the number of connections which have received the line.
func (b *Broker) Broadcast(text string) int {
	return b.deliver(b.clients.snapshot(), text, kindMessage)
}

// CloseAll - closes all live connections. Their disconnected events remove them from registry.
func (b *Broker) CloseAll() {
	for _, c := range b.clients.snapshot() {
		c.Close()
	}
}

// Quit - puts broker under stop condition and closes all live connections.
// New connections are closed immediately after that.
func (b *Broker) Quit() {
	for _, c := range b.clients.stop() {
		c.Close()
	}
}

// deliver - sends the line to every given connection concurrently and waits for all of them.
// Waiting keeps lines of single origin in order for every recipient.
func (b *Broker) deliver(peers []*conn.Connection, text string, k kind) int {
	if len(peers) == 0 {
		return 0
	}
	from := time.Now()
	delivered := atomic.Int64{}
	wg := sync.WaitGroup{}
	for _, peer := range peers {
		wg.Add(1)
		go func(peer *conn.Connection) {
			defer wg.Done()
			if err := peer.Send(text); err != nil {
				metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
				return
			}
			metrics.DeliveriesTotal.WithLabelValues("ok").Inc()
			delivered.Add(1)
		}(peer)
	}
	wg.Wait()
	metrics.BroadcastsTotal.WithLabelValues(string(k)).Inc()
	metrics.BroadcastDuration.Observe(time.Since(from).Seconds())
	return int(delivered.Load())
}
