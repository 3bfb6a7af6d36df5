package lock

import (
	"context"
	"time"
)

// Status is the outcome of a timed or try lock operation.
type Status int

const (
	// Acquired means the caller now holds the lock.
	Acquired Status = iota

	// Failure means a try-only acquire found the lock held.
	Failure

	// Timeout means the timeout elapsed before the lock was acquired.
	Timeout

	// Interrupted means the wait was interrupted and not resumed.
	Interrupted
)

// String returns a human-readable name for s.
func (s Status) String() string {
	switch s {
	case Acquired:
		return "acquired"
	case Failure:
		return "failure"
	case Timeout:
		return "timeout"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Forever is the timeout meaning "wait without limit".
const Forever time.Duration = -1

// Flags modify how a blocking operation waits.
type Flags uint8

const (
	// Detach runs the Parking Service suspend hooks around each sleep.
	Detach Flags = 1 << iota

	// HandleInterrupts gives LockOptions.OnInterrupt the chance to
	// process an interruption. If it returns nil, the wait resumes with
	// the remaining timeout and no longer observes the context's
	// cancellation.
	HandleInterrupts

	// FailIfInterrupted makes an interrupted wait return Interrupted.
	FailIfInterrupted
)

// A wait is interrupted when its context is done. Without
// HandleInterrupts or FailIfInterrupted the interruption is ignored for
// the rest of the call.

// LockOptions control a blocking acquire.
//
// The zero value is a try-only acquire without hooks.
type LockOptions struct {
	// Timeout is Forever, zero (try only) or a positive bound. The
	// deadline is computed once at call entry.
	Timeout time.Duration

	// Flags modify the wait.
	Flags Flags

	// OnInterrupt processes an interruption when HandleInterrupts is
	// set. A nil function counts as handled. Returning an error makes the
	// operation return Interrupted.
	OnInterrupt func(ctx context.Context) error
}

// interrupted decides what a wait does after the Parking Service reports
// an interruption. It returns true if the operation must stop; otherwise
// *ctx is replaced by a context that ignores the handled cancellation.
func (o *LockOptions) interrupted(ctx *context.Context) bool {
	switch {
	case o.Flags&HandleInterrupts != 0:
		if o.OnInterrupt != nil {
			if err := o.OnInterrupt(*ctx); err != nil {
				return true
			}
		}
	case o.Flags&FailIfInterrupted != 0:
		return true
	}
	*ctx = context.WithoutCancel(*ctx)
	return false
}

// blocking is the option set used by the plain Lock/Wait methods.
var blocking = LockOptions{Timeout: Forever, Flags: Detach}
