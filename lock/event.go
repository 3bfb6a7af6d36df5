package lock

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/kolkov/parksync/internal/monotime"
	"github.com/kolkov/parksync/internal/parking"
)

const (
	eventUnset  uint32 = 0
	eventSet    uint32 = 1
	eventParked uint32 = 2
)

// Event is a one-shot latch. Once notified it stays set, and every
// current and future Wait returns true.
//
// The zero value is unset and uses DefaultConfig.
type Event struct {
	state atomic.Uint32
	cfg   *Config
}

// NewEvent returns an unset Event using cfg.
func NewEvent(cfg Config) *Event {
	return &Event{cfg: &cfg}
}

// Notify sets e and wakes all waiters. Extra calls are no-ops.
func (e *Event) Notify() {
	if e.state.Swap(eventSet) == eventParked {
		resolve(e.cfg).parking().UnparkAll(unsafe.Pointer(&e.state))
	}
}

// Wait blocks until e is set.
func (e *Event) Wait() {
	e.WaitWithOptions(context.Background(), blocking)
}

// WaitTimeout waits at most d for e to be set and reports whether it is.
func (e *Event) WaitTimeout(d time.Duration) bool {
	return e.WaitWithOptions(context.Background(), LockOptions{Timeout: d, Flags: Detach})
}

// WaitWithOptions waits for e as directed by opts and reports whether e
// is set. Interruptions are treated as described for Flags; a handled
// interruption resumes the wait with the time left before the deadline
// computed at entry.
func (e *Event) WaitWithOptions(ctx context.Context, opts LockOptions) bool {
	svc := resolve(e.cfg).parking()
	timeout := opts.Timeout
	var deadline int64
	if timeout > 0 {
		deadline = monotime.Deadline(timeout)
	}

	for {
		v := e.state.Load()
		if v == eventSet {
			return true
		}
		if v == eventUnset && !e.state.CompareAndSwap(eventUnset, eventParked) {
			continue
		}

		switch svc.Park(ctx, unsafe.Pointer(&e.state), uint64(eventParked), 4,
			timeout, nil, opts.Flags&Detach != 0) {
		case parking.TimedOut:
			return e.IsSet()
		case parking.Interrupted:
			if opts.interrupted(&ctx) {
				return e.IsSet()
			}
		}

		if timeout > 0 {
			if timeout = monotime.Remaining(deadline); timeout == 0 {
				return e.IsSet()
			}
		}
	}
}

// IsSet reports whether e has been notified.
func (e *Event) IsSet() bool {
	return e.state.Load() == eventSet
}
