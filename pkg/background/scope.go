// Package background helps to control the lifetime of a group of goroutines.
package background

import (
	"context"
	"sync"
)

// Scope - abstract concurrency scope
type Scope struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	scope     sync.WaitGroup

	waitOnce sync.Once
	waitDone chan struct{}
}

// NewScope - concurrency scope builder.
// Returned cancel func cancels scope context and waits all members are done.
func NewScope() (scope *Scope, cancel func()) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	b := &Scope{
		ctx:       ctx,
		ctxCancel: cancelFunc,
	}
	return b,
		func() {
			b.ctxCancel()
			b.scope.Wait()
		}
}

// Context - return background context
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Add - notifies scope to register processes/workers/layers.
// Based on sync.WaitGroup.
func (s *Scope) Add(delta int) {
	s.scope.Add(delta)
}

// Done - notifies scope when process/worker/layer is done.
// Based on sync.WaitGroup.
func (s *Scope) Done() {
	s.scope.Done()
}

// Go - runs f in new goroutine as a member of the scope.
func (s *Scope) Go(f func(ctx context.Context)) {
	s.scope.Add(1)
	go func() {
		defer s.scope.Done()
		f(s.ctx)
	}()
}

// Cancel - cancels scope context without waiting for members.
func (s *Scope) Cancel() {
	s.ctxCancel()
}

// Wait - returns channel which is closed when all members are done.
// Every call returns the same channel, backed by single waiting goroutine
// which lives until the last member is done, even if the caller stops listening.
// Do not add new members after Wait is called.
func (s *Scope) Wait() <-chan struct{} {
	s.waitOnce.Do(func() {
		s.waitDone = make(chan struct{})
		go func() {
			s.scope.Wait()
			close(s.waitDone)
		}()
	})
	return s.waitDone
}
