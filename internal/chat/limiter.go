package chat

import "sync/atomic"

// ConnectionLimiter - limits total number of concurrent connections.
// Zero max means there is no limit, connections are still counted.
type ConnectionLimiter struct {
	current atomic.Int64
	max     int64
}

// NewConnectionLimiter - creates a limiter with the specified maximum connections.
func NewConnectionLimiter(max int64) *ConnectionLimiter {
	if max < 0 {
		max = 0
	}
	return &ConnectionLimiter{max: max}
}

// Acquire - attempts to acquire a connection slot.
// Returns true if successful, false if at capacity.
func (l *ConnectionLimiter) Acquire() bool {
	for {
		current := l.current.Load()
		if l.max > 0 && current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release - releases a connection slot.
func (l *ConnectionLimiter) Release() {
	l.current.Add(-1)
}

// Current - returns the current number of connections.
func (l *ConnectionLimiter) Current() int64 {
	return l.current.Load()
}

// Max - returns the maximum allowed connections, 0 is unlimited.
func (l *ConnectionLimiter) Max() int64 {
	return l.max
}
