// Package sema implements the binary semaphore that every blocking
// primitive in this module ultimately sleeps on.
//
// Each waiting goroutine owns exactly one Sema for the duration of its
// wait. A waker calls Wakeup once; the owner's Wait consumes the signal.
// The semaphore is binary: a second Wakeup before the signal is consumed
// has no effect.
package sema

import (
	"context"
	"time"
)

// Result is the reason Wait returned.
type Result int

const (
	// OK means the semaphore was signalled and the signal consumed.
	OK Result = iota
	// TimedOut means the timeout elapsed without a signal.
	TimedOut
	// Interrupted means the context was done before a signal arrived.
	Interrupted
)

// String returns a human-readable name for r.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case TimedOut:
		return "timed out"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Sema is a binary semaphore. Create it with New.
type Sema struct {
	ch chan struct{}
}

// New returns an unsignalled semaphore.
func New() *Sema {
	return &Sema{ch: make(chan struct{}, 1)}
}

// Wakeup signals the semaphore. It never blocks.
func (s *Sema) Wakeup() {
	select {
	case s.ch <- struct{}{}:
	default:
		// Already signalled.
	}
}

// Wait blocks until the semaphore is signalled, the timeout elapses, or
// ctx is done, whichever comes first.
//
// A negative timeout waits forever, zero only consumes a pending signal.
// A nil ctx is never done.
func (s *Sema) Wait(ctx context.Context, timeout time.Duration) Result {
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}

	// A pending signal wins over an already-cancelled context.
	select {
	case <-s.ch:
		return OK
	default:
	}

	switch {
	case timeout == 0:
		return TimedOut
	case timeout < 0:
		select {
		case <-s.ch:
			return OK
		case <-done:
			return Interrupted
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.ch:
		return OK
	case <-t.C:
		return TimedOut
	case <-done:
		return Interrupted
	}
}
