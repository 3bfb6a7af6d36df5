// Package lock provides compact synchronization primitives built on a
// parking lot: a process-wide table that parks goroutines keyed by the
// address of the word they wait on.
//
// Every primitive keeps its whole state in one small atomic word and
// touches the parking lot only when a goroutine actually has to wait,
// so an uncontended Lock/Unlock is a single compare-and-swap each.
//
// # Primitives
//
//   - [Mutex]: barging lock with a bounded-starvation hand-off.
//   - [RawMutex]: word-sized lock that queues waiters on the word itself.
//   - [RecursiveMutex]: owner-reentrant [Mutex].
//   - [RWMutex]: writer-preferring reader/writer lock.
//   - [Event]: one-shot latch.
//   - [OnceFlag]: run-once initialization that retries after failure.
//   - [SeqLock]: sequence lock for optimistic readers.
//
// # Quick Start
//
//	var mu lock.Mutex
//
//	mu.Lock()
//	counter++
//	mu.Unlock()
//
//	if mu.LockTimeout(10*time.Millisecond) == lock.Acquired {
//		defer mu.Unlock()
//		// ...
//	}
//
// # Timeouts and Interruption
//
// Timed operations take a time.Duration: [Forever] waits without limit,
// zero only tries, and a positive value bounds the total wait. The
// *WithOptions variants also take a context; a wait is interrupted when
// the context is done, and [Flags] decide whether that ends the
// operation.
//
// # Misuse
//
// Unlocking a lock that is not held is a programming error. The
// primitives log it through zap and panic with a [*UsageError] without
// modifying their state.
//
// # Configuration
//
// Zero-value primitives use [DefaultConfig] and the process-wide
// [DefaultParkingService]. The New* constructors accept a [Config] to
// tune spinning and fairness or to use an independent [ParkingService].
package lock
