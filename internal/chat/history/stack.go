// Package history keeps the most recent chat lines in memory.
package history

import (
	"fmt"
	"sync"
)

// Stack - accumulates a limited number of lines in style of LIFO queue.
// When stack length reaches max value, it drops the oldest line on every push.
type Stack struct {
	max  int
	mu   sync.RWMutex
	data []string
}

// NewStack - builds history stack.
func NewStack(max int) (*Stack, error) {
	if max <= 0 {
		return nil, fmt.Errorf("history.NewStack: max (%d) must be greater than 0", max)
	}
	return &Stack{max: max, data: make([]string, 0, max)}, nil
}

// Len - returns number of currently kept lines.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Push - adds line to history.
func (s *Stack) Push(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == s.max {
		copy(s.data, s.data[1:])
		s.data = s.data[:len(s.data)-1]
	}
	s.data = append(s.data, line)
}

// Tail - makes copy of last n lines from stack into resulting slice.
// The first line in resulting slice is the oldest one.
func (s *Stack) Tail(n int) []string {
	if n < 0 {
		n *= -1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := len(s.data)
	if n > l {
		n = l
	}
	tail := make([]string, n)
	copy(tail, s.data[l-n:])
	return tail
}
