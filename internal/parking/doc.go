// Package parking implements the Parking Service: an address-keyed
// compare-and-sleep / wake broker that every blocking primitive of this
// module is built on.
//
// A primitive that wants to sleep calls Park with the address of its state
// word and the value it last observed there. The service atomically (with
// respect to Unpark and UnparkAll on the same address) checks that the word
// still holds that value and, if so, queues the caller and puts it to
// sleep. Wakers call Unpark to wake the oldest waiter on an address, or
// UnparkAll to wake every waiter.
//
// Key Concepts:
//
// Buckets:
//   - A fixed table of 257 buckets indexed by a hash of the address
//   - Each bucket is guarded by a rawmutex.Mutex, which never parks, so
//     the service has no circular dependency on itself
//   - Waiters for different addresses may share a bucket; queues are FIFO
//     per address
//
// Unpark callbacks:
//   - Unpark calls its callback exactly once, synchronously, while the
//     bucket is locked, with the woken waiter's argument (nil if none)
//   - State stored by the callback is therefore ordered with respect to
//     the validation step of any concurrent Park on the same address
//
// Lifecycle:
//   - Default returns the process-wide Service, created on first use
//   - New creates independent instances for tests and embedders
//   - AfterFork discards all waiter bookkeeping; it is the only
//     teardown-adjacent operation
//
// Example:
//
//	var word atomic.Uint32
//	svc := parking.Default()
//
//	// Waiter: sleep while word == 1.
//	svc.Park(ctx, unsafe.Pointer(&word), 1, 4, parking.Forever, nil, false)
//
//	// Waker.
//	word.Store(0)
//	svc.UnparkAll(unsafe.Pointer(&word))
package parking
