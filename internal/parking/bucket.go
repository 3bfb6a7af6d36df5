package parking

import (
	"unsafe"

	"github.com/kolkov/parksync/internal/rawmutex"
	"github.com/kolkov/parksync/internal/sema"
)

// NumBuckets is the size of the bucket table. It is prime so that
// word-aligned addresses spread evenly.
const NumBuckets = 257

const numBuckets = NumBuckets

// waiter is the per-park record of a sleeping goroutine.
type waiter struct {
	addr unsafe.Pointer
	arg  any
	sema *sema.Sema

	prev, next *waiter

	// unparking is set, under the bucket lock, by the waker that dequeued
	// this waiter. A wake signal is then guaranteed to follow.
	unparking bool
}

// bucket is a FIFO queue of waiters for every address that hashes to it.
type bucket struct {
	mu         rawmutex.Mutex
	head, tail *waiter
	n          int
}

// bucketIndex maps an address to its bucket.
//
// Multiplicative hashing with the golden ratio mixes the low bits, which
// are mostly zero for aligned state words.
func bucketIndex(addr unsafe.Pointer) int {
	const goldenRatio = 0x9E3779B97F4A7C15
	h := uint64(uintptr(addr)) * goldenRatio
	return int((h >> 32) % numBuckets)
}

// enqueue appends w. Caller holds b.mu.
func (b *bucket) enqueue(w *waiter) {
	w.prev = b.tail
	w.next = nil
	if b.tail != nil {
		b.tail.next = w
	} else {
		b.head = w
	}
	b.tail = w
	b.n++
}

// remove unlinks w. Caller holds b.mu.
func (b *bucket) remove(w *waiter) {
	if w.prev != nil {
		w.prev.next = w.next
	} else {
		b.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else {
		b.tail = w.prev
	}
	w.prev, w.next = nil, nil
	b.n--
}

// dequeue removes and returns the oldest waiter on addr, or nil.
// Caller holds b.mu.
func (b *bucket) dequeue(addr unsafe.Pointer) *waiter {
	for w := b.head; w != nil; w = w.next {
		if w.addr == addr {
			b.remove(w)
			return w
		}
	}
	return nil
}

// dequeueAll removes every waiter on addr and returns them linked through
// next, oldest first. Caller holds b.mu.
func (b *bucket) dequeueAll(addr unsafe.Pointer) *waiter {
	var first, last *waiter
	for w := b.head; w != nil; {
		next := w.next
		if w.addr == addr {
			b.remove(w)
			w.unparking = true
			if last != nil {
				last.next = w
			} else {
				first = w
			}
			last = w
		}
		w = next
	}
	return first
}

// count returns the number of waiters on addr. Caller holds b.mu.
func (b *bucket) count(addr unsafe.Pointer) int {
	n := 0
	for w := b.head; w != nil; w = w.next {
		if w.addr == addr {
			n++
		}
	}
	return n
}

// has reports whether any waiter on addr remains. Caller holds b.mu.
func (b *bucket) has(addr unsafe.Pointer) bool {
	for w := b.head; w != nil; w = w.next {
		if w.addr == addr {
			return true
		}
	}
	return false
}
