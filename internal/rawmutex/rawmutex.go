// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawmutex implements a mutex that depends only on a per-waiter
// binary semaphore.
//
// The Parking Service needs mutual exclusion for its own buckets, so it
// cannot use primitives that park through it. Mutex is that bottom layer.
//
// State is a single pointer-sized word:
//
//	nil                     unlocked, no waiters
//	head|1                  locked; head is the first waiter node
//	&noWaiters|1            locked, no waiters
//	head (untagged)         unlocked; woken waiters are still queued
//
// Waiter nodes form a singly linked stack (newest first). They are
// heap-allocated and pooled, and stay reachable from the waiting
// goroutine for as long as they are linked, so the tagged interior
// pointer in the word never outlives its node.
package rawmutex

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/parksync/internal/fatal"
	"github.com/kolkov/parksync/internal/sema"
)

// waiter is a node in the intrusive waiter list.
type waiter struct {
	next *waiter
	sema *sema.Sema
}

// noWaiters is the head of the list of a locked mutex nobody waits on.
// It is never linked or signalled.
var noWaiters waiter

var waiterPool = sync.Pool{
	New: func() any { return &waiter{sema: sema.New()} },
}

// Mutex is a mutual exclusion lock that never uses the Parking Service.
//
// The zero value is an unlocked mutex. A Mutex must not be copied after
// first use. Dropping a Mutex that still has waiters is a precondition
// violation and is not detected.
type Mutex struct {
	state unsafe.Pointer // accessed atomically
}

// Lock acquires m, blocking until it is available.
func (m *Mutex) Lock() {
	if atomic.CompareAndSwapPointer(&m.state, nil, lockedWord(nil)) {
		return
	}
	m.lockSlow()
}

// TryLock acquires m if it is unlocked and reports whether it did.
func (m *Mutex) TryLock() bool {
	v := atomic.LoadPointer(&m.state)
	for !isLocked(v) {
		if atomic.CompareAndSwapPointer(&m.state, v, lockedWord(head(v))) {
			return true
		}
		v = atomic.LoadPointer(&m.state)
	}
	return false
}

func (m *Mutex) lockSlow() {
	w := waiterPool.Get().(*waiter)
	defer func() {
		w.next = nil
		waiterPool.Put(w)
	}()

	v := atomic.LoadPointer(&m.state)
	for {
		if !isLocked(v) {
			if atomic.CompareAndSwapPointer(&m.state, v, lockedWord(head(v))) {
				return
			}
			v = atomic.LoadPointer(&m.state)
			continue
		}

		w.next = head(v)
		if !atomic.CompareAndSwapPointer(&m.state, v, lockedWord(w)) {
			v = atomic.LoadPointer(&m.state)
			continue
		}

		// Being woken is not ownership: retry from the top.
		w.sema.Wait(context.Background(), -1)
		v = atomic.LoadPointer(&m.state)
	}
}

// Unlock releases m. If goroutines are waiting, the most recent one is
// woken to contend for the lock again.
//
// Unlocking an unlocked Mutex is fatal.
func (m *Mutex) Unlock() {
	if atomic.CompareAndSwapPointer(&m.state, lockedWord(nil), nil) {
		return
	}
	m.unlockSlow()
}

func (m *Mutex) unlockSlow() {
	v := atomic.LoadPointer(&m.state)
	for {
		if !isLocked(v) {
			fatal.Raise(nil, "RawMutex", "Unlock", "unlocking mutex that is not locked")
		}

		if h := head(v); h != nil {
			if atomic.CompareAndSwapPointer(&m.state, v, unlockedWord(h.next)) {
				h.sema.Wakeup()
				return
			}
		} else if atomic.CompareAndSwapPointer(&m.state, v, nil) {
			return
		}
		v = atomic.LoadPointer(&m.state)
	}
}

// Locked reports whether m is currently held. The answer may be stale by
// the time the caller looks at it.
func (m *Mutex) Locked() bool {
	return isLocked(atomic.LoadPointer(&m.state))
}

func isLocked(v unsafe.Pointer) bool {
	return uintptr(v)&1 != 0
}

// head returns the first waiter encoded in v, or nil.
func head(v unsafe.Pointer) *waiter {
	if v == nil {
		return nil
	}
	if isLocked(v) {
		v = unsafe.Add(v, -1)
	}
	if v == unsafe.Pointer(&noWaiters) {
		return nil
	}
	return (*waiter)(v)
}

func lockedWord(h *waiter) unsafe.Pointer {
	if h == nil {
		h = &noWaiters
	}
	return unsafe.Add(unsafe.Pointer(h), 1)
}

func unlockedWord(h *waiter) unsafe.Pointer {
	return unsafe.Pointer(h)
}
