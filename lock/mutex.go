// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lock

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/kolkov/parksync/internal/fatal"
	"github.com/kolkov/parksync/internal/monotime"
	"github.com/kolkov/parksync/internal/parking"
	"github.com/kolkov/parksync/internal/yield"
)

// Mutex state bits.
const (
	mutexLocked    uint32 = 1 << 0
	mutexHasParked uint32 = 1 << 1
)

// Mutex is a mutual exclusion lock whose state is a single word.
//
// Acquisition is barging: an unlocked Mutex goes to whichever goroutine
// wins the compare-and-swap, even if others are parked. A waiter that
// has been losing for longer than Config.FairnessWindow is instead
// handed ownership directly by the next Unlock, which bounds starvation.
//
// The zero value is an unlocked Mutex using DefaultConfig. A Mutex must
// not be copied after first use. Any goroutine may unlock it.
type Mutex struct {
	state atomic.Uint32
	cfg   *Config
}

// NewMutex returns an unlocked Mutex using cfg. Start from DefaultConfig
// and override fields: zero SpinLimit and FairnessWindow are taken
// literally, so a bare Config{Parking: svc} never spins and hands off on
// every wake.
func NewMutex(cfg Config) *Mutex {
	return &Mutex{cfg: &cfg}
}

// mutexEntry is the park argument of a Mutex waiter. The unlocker
// writes handedOff under the bucket lock before waking the waiter.
type mutexEntry struct {
	fairDeadline int64
	handedOff    bool
}

// TryLock acquires m if it is unlocked, without waiting.
func (m *Mutex) TryLock() bool {
	v := m.state.Load()
	return v&mutexLocked == 0 && m.state.CompareAndSwap(v, v|mutexLocked)
}

// Lock acquires m, parking the calling goroutine while it is held.
func (m *Mutex) Lock() {
	if m.state.CompareAndSwap(0, mutexLocked) {
		return
	}
	m.lockSlow(context.Background(), blocking)
}

// LockTimeout acquires m, waiting at most d. A zero d only tries; a
// negative d waits forever.
func (m *Mutex) LockTimeout(d time.Duration) Status {
	if m.state.CompareAndSwap(0, mutexLocked) {
		return Acquired
	}
	return m.lockSlow(context.Background(), LockOptions{Timeout: d, Flags: Detach})
}

// LockWithOptions acquires m as directed by opts. The wait is
// interrupted when ctx is done; see Flags.
func (m *Mutex) LockWithOptions(ctx context.Context, opts LockOptions) Status {
	if m.state.CompareAndSwap(0, mutexLocked) {
		return Acquired
	}
	return m.lockSlow(ctx, opts)
}

func (m *Mutex) lockSlow(ctx context.Context, opts LockOptions) Status {
	cfg := resolve(m.cfg)
	svc := cfg.parking()

	timeout := opts.Timeout
	var deadline int64
	if timeout > 0 {
		deadline = monotime.Deadline(timeout)
	}
	entry := &mutexEntry{fairDeadline: monotime.Now() + int64(cfg.FairnessWindow)}

	spinLimit := 0
	if runtime.GOMAXPROCS(0) > 1 {
		spinLimit = cfg.SpinLimit
	}
	spins := 0
	expired := false

	v := m.state.Load()
	for {
		if v&mutexLocked == 0 {
			if m.state.CompareAndSwap(v, v|mutexLocked) {
				return Acquired
			}
			v = m.state.Load()
			continue
		}

		if timeout == 0 {
			if expired {
				return Timeout
			}
			return Failure
		}

		if v&mutexHasParked == 0 {
			if spins < spinLimit {
				yield.Processor()
				spins++
				v = m.state.Load()
				continue
			}
			nv := v | mutexHasParked
			if !m.state.CompareAndSwap(v, nv) {
				v = m.state.Load()
				continue
			}
			v = nv
		}

		res := svc.Park(ctx, unsafe.Pointer(&m.state), uint64(v), 4, timeout, entry, opts.Flags&Detach != 0)
		switch res {
		case parking.OK:
			if entry.handedOff {
				return Acquired
			}
		case parking.TimedOut:
			return Timeout
		case parking.Interrupted:
			if opts.interrupted(&ctx) {
				return Interrupted
			}
		}

		if timeout > 0 {
			timeout = monotime.Remaining(deadline)
			expired = timeout == 0
		}
		v = m.state.Load()
	}
}

// Unlock releases m. Unlocking an unlocked Mutex panics with a
// *UsageError.
func (m *Mutex) Unlock() {
	if m.state.CompareAndSwap(mutexLocked, 0) {
		return
	}
	m.unlockSlow()
}

func (m *Mutex) unlockSlow() {
	cfg := resolve(m.cfg)
	v := m.state.Load()
	for {
		if v&mutexLocked == 0 {
			fatal.Raise(cfg.logger(), "Mutex", "Unlock", "unlock of unlocked mutex")
		}
		if v&mutexHasParked != 0 {
			svc := cfg.parking()
			svc.Unpark(unsafe.Pointer(&m.state), func(arg any, hasMore bool) {
				m.release(svc, arg, hasMore)
			})
			return
		}
		if m.state.CompareAndSwap(v, 0) {
			return
		}
		v = m.state.Load()
	}
}

// release runs under the bucket lock of m.state and publishes the new
// state for the woken waiter, if any.
func (m *Mutex) release(svc *parking.Service, arg any, hasMore bool) {
	var v uint32
	if e, ok := arg.(*mutexEntry); ok {
		if monotime.Now() > e.fairDeadline {
			e.handedOff = true
			v |= mutexLocked
			svc.NoteHandoff()
		}
		if hasMore {
			v |= mutexHasParked
		}
	}
	m.state.Store(v)
}

// IsLocked reports whether m is held. The answer may be stale by the
// time the caller acts on it.
func (m *Mutex) IsLocked() bool {
	return m.state.Load()&mutexLocked != 0
}
