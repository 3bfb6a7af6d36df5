// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lock

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/parksync/internal/fatal"
)

// RWMutex word layout: bit 0 write-locked, bit 1 has-parked, the rest
// counts readers.
const (
	rwWriteLocked uintptr = 1 << 0
	rwHasParked   uintptr = 1 << 1
	rwReaderShift         = 2
	rwReader      uintptr = 1 << rwReaderShift
	rwMaxReaders          = ^uintptr(0) >> rwReaderShift
)

// RWMutex is a reader/writer lock with writer preference: once a writer
// is waiting, new readers wait too.
//
// Unlike sync.RWMutex, a reader that already holds the lock must not
// RLock it again while a writer may be waiting; that deadlocks.
//
// The zero value is unlocked and uses DefaultConfig.
type RWMutex struct {
	bits atomic.Uintptr
	cfg  *Config
}

// NewRWMutex returns an unlocked RWMutex using cfg. It does not spin and
// has no fairness window, so only the Parking and Logger fields apply.
func NewRWMutex(cfg Config) *RWMutex {
	return &RWMutex{cfg: &cfg}
}

func readers(bits uintptr) uintptr {
	return bits >> rwReaderShift
}

// parkOn sets the has-parked bit if needed and sleeps until the word
// changes. It returns the latest word.
func (rw *RWMutex) parkOn(bits uintptr) uintptr {
	if bits&rwHasParked == 0 {
		if !rw.bits.CompareAndSwap(bits, bits|rwHasParked) {
			return rw.bits.Load()
		}
		bits |= rwHasParked
	}
	resolve(rw.cfg).parking().Park(context.Background(), unsafe.Pointer(&rw.bits), uint64(bits),
		unsafe.Sizeof(bits), Forever, nil, true)
	return rw.bits.Load()
}

// RLock acquires a read lock. It waits while a writer holds the lock or
// any goroutine is parked on it.
func (rw *RWMutex) RLock() {
	bits := rw.bits.Load()
	for {
		if bits&(rwWriteLocked|rwHasParked) != 0 {
			bits = rw.parkOn(bits)
			continue
		}
		if readers(bits) == rwMaxReaders {
			fatal.Raise(resolve(rw.cfg).logger(), "RWMutex", "RLock", "too many readers")
		}
		if rw.bits.CompareAndSwap(bits, bits+rwReader) {
			return
		}
		bits = rw.bits.Load()
	}
}

// TryRLock acquires a read lock if that needs no waiting.
func (rw *RWMutex) TryRLock() bool {
	bits := rw.bits.Load()
	for bits&(rwWriteLocked|rwHasParked) == 0 && readers(bits) < rwMaxReaders {
		if rw.bits.CompareAndSwap(bits, bits+rwReader) {
			return true
		}
		bits = rw.bits.Load()
	}
	return false
}

// RUnlock releases a read lock. The last reader out wakes everyone
// parked. RUnlock without a read lock panics with a *UsageError.
func (rw *RWMutex) RUnlock() {
	bits := rw.bits.Load()
	for {
		if readers(bits) == 0 {
			fatal.Raise(resolve(rw.cfg).logger(), "RWMutex", "RUnlock", "read unlock without read lock")
		}
		if rw.bits.CompareAndSwap(bits, bits-rwReader) {
			break
		}
		bits = rw.bits.Load()
	}
	bits -= rwReader
	if readers(bits) == 0 && bits&rwHasParked != 0 {
		resolve(rw.cfg).parking().UnparkAll(unsafe.Pointer(&rw.bits))
	}
}

// Lock acquires the write lock.
func (rw *RWMutex) Lock() {
	if rw.bits.CompareAndSwap(0, rwWriteLocked) {
		return
	}
	bits := rw.bits.Load()
	for {
		if bits&^rwHasParked == 0 {
			if rw.bits.CompareAndSwap(bits, bits|rwWriteLocked) {
				return
			}
			bits = rw.bits.Load()
			continue
		}
		bits = rw.parkOn(bits)
	}
}

// TryLock acquires the write lock if it is free.
func (rw *RWMutex) TryLock() bool {
	bits := rw.bits.Load()
	return bits&^rwHasParked == 0 && rw.bits.CompareAndSwap(bits, bits|rwWriteLocked)
}

// Unlock releases the write lock and wakes everyone parked. Unlock
// without the write lock panics with a *UsageError.
func (rw *RWMutex) Unlock() {
	if rw.bits.Load()&rwWriteLocked == 0 {
		fatal.Raise(resolve(rw.cfg).logger(), "RWMutex", "Unlock", "unlock of unlocked rwmutex")
	}
	if rw.bits.Swap(0)&rwHasParked != 0 {
		resolve(rw.cfg).parking().UnparkAll(unsafe.Pointer(&rw.bits))
	}
}
