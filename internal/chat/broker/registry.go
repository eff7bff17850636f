package broker

import (
	"sync"

	"github.com/samber/lo"

	"github.com/wtask/linechat/internal/chat/conn"
)

// registry - set of live connections.
// Every mutation returns the snapshot of the set taken under the same lock.
// The lock also orders the set against chat history: a line is pushed into history
// and the set of its recipients is taken in one step, the same as history greets are
// sent and the connection is added, so a newcomer gets every line exactly once.
type registry struct {
	mu      sync.RWMutex
	list    map[*conn.Connection]struct{}
	stopped bool
}

func newRegistry() *registry {
	return &registry{
		list: make(map[*conn.Connection]struct{}),
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

func (r *registry) has(c *conn.Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.list[c]
	return ok
}

// add - registers connection unless the registry is stopped.
// Non-nil greet is called under the lock before the connection is added,
// its error cancels registration.
func (r *registry) add(c *conn.Connection, greet func() error) ([]*conn.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrUnderStopCondition
	}
	if _, ok := r.list[c]; ok {
		return nil, ErrConnKept
	}
	if greet != nil {
		if err := greet(); err != nil {
			return nil, err
		}
	}
	r.list[c] = struct{}{}
	return lo.Keys(r.list), nil
}

func (r *registry) delete(c *conn.Connection) (snapshot []*conn.Connection, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[c]; !ok {
		return nil, false
	}
	delete(r.list, c)
	return lo.Keys(r.list), true
}

// publish - pushes the line into history and returns its recipients.
func (r *registry) publish(h MessageHistory, line string) []*conn.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	historyPush(h, line)
	return lo.Keys(r.list)
}

// stop - puts registry under stop condition and returns connections left in it.
func (r *registry) stop() []*conn.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return lo.Keys(r.list)
}

func (r *registry) snapshot() []*conn.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.list)
}
