package parking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"go.uber.org/zap"

	"github.com/kolkov/parksync/internal/fatal"
	"github.com/kolkov/parksync/internal/sema"
)

// Result is the outcome of Park.
type Result int

const (
	// OK means the goroutine was woken by Unpark or UnparkAll.
	OK Result = 0

	// Again means the word did not hold the expected value; the caller
	// did not sleep.
	Again Result = -1

	// TimedOut means the timeout elapsed before a wake.
	TimedOut Result = -2

	// Interrupted means the context was done before a wake.
	Interrupted Result = -3
)

// String returns a human-readable name for r.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Again:
		return "again"
	case TimedOut:
		return "timed out"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Forever is the timeout meaning "wait without limit".
const Forever time.Duration = -1

// Service is an address-keyed wait/wake broker.
//
// Thread Safety: all methods except AfterFork are safe for concurrent use.
type Service struct {
	buckets [numBuckets]bucket
	hooks   Hooks
	log     *zap.Logger
	stats   counters
}

// New creates a Service with an empty bucket table.
func New(opts ...Option) *Service {
	s := &Service{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultOnce    sync.Once
	defaultService *Service
)

// Default returns the process-wide Service, creating it on first call.
//
// Its logger is the global zap logger at the time of creation.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultService = New(WithLogger(zap.L()))
	})
	return defaultService
}

var waiterPool = sync.Pool{
	New: func() any { return &waiter{sema: sema.New()} },
}

// Park puts the calling goroutine to sleep if the size-byte word at addr
// equals expected.
//
// The comparison is made under the bucket lock, so an Unpark or UnparkAll
// on addr that follows a change to the word cannot be missed. size must
// be 4 or 8. A negative timeout waits forever; zero returns TimedOut
// right after queueing unless a wake is already pending. arg is handed to
// the callback of the Unpark that wakes this goroutine. If detach is
// true, the suspend hooks run around the sleep.
//
// A nil ctx is never done.
func (s *Service) Park(ctx context.Context, addr unsafe.Pointer, expected uint64, size uintptr,
	timeout time.Duration, arg any, detach bool) Result {
	if size != 4 && size != 8 {
		fatal.Raise(s.log, "Parking", "Park", "word size must be 4 or 8 bytes")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	b := &s.buckets[bucketIndex(addr)]

	b.mu.Lock()
	if s.load(addr, size) != expected {
		b.mu.Unlock()
		s.stats.again.Add(1)
		return Again
	}
	w := waiterPool.Get().(*waiter)
	w.addr, w.arg, w.unparking = addr, arg, false
	b.enqueue(w)
	b.mu.Unlock()

	s.stats.parks.Add(1)
	s.stats.waiting.Add(1)
	if detach {
		s.hooks.suspend()
	}

	res := OK
	if r := w.sema.Wait(ctx, timeout); r != sema.OK {
		b.mu.Lock()
		if w.unparking {
			b.mu.Unlock()
			// A waker already dequeued us; its signal is in flight.
			s.log.Debug("park: wake raced with timeout", zap.Stringer("reason", r))
			w.sema.Wait(context.Background(), Forever)
		} else {
			b.remove(w)
			b.mu.Unlock()
			res = fromSema(r)
		}
	}

	if detach {
		s.hooks.resume()
	}
	s.stats.waiting.Add(-1)
	switch res {
	case TimedOut:
		s.stats.timedOut.Add(1)
	case Interrupted:
		s.stats.interrupted.Add(1)
	}

	w.addr, w.arg = nil, nil
	waiterPool.Put(w)
	return res
}

// Unpark wakes the oldest goroutine parked on addr.
//
// fn is called exactly once, synchronously, while the bucket is locked:
// with the woken waiter's park argument and whether more waiters remain
// on addr, or with (nil, false) if nobody was parked. fn must not call
// back into the Service.
func (s *Service) Unpark(addr unsafe.Pointer, fn func(parkArg any, hasMore bool)) {
	b := &s.buckets[bucketIndex(addr)]

	b.mu.Lock()
	w := b.dequeue(addr)
	if w == nil {
		fn(nil, false)
		b.mu.Unlock()
		return
	}
	w.unparking = true
	fn(w.arg, b.has(addr))
	b.mu.Unlock()

	s.stats.unparks.Add(1)
	w.sema.Wakeup()
}

// UnparkAll wakes every goroutine parked on addr.
func (s *Service) UnparkAll(addr unsafe.Pointer) {
	b := &s.buckets[bucketIndex(addr)]

	b.mu.Lock()
	w := b.dequeueAll(addr)
	b.mu.Unlock()

	for w != nil {
		// w may be reused as soon as it is signalled.
		next := w.next
		s.stats.unparks.Add(1)
		w.sema.Wakeup()
		w = next
	}
}

// AfterFork discards all parked-goroutine bookkeeping.
//
// It must be called at most once, by the only goroutine still running
// in a re-initialized child, before any primitive is used. Waiters that
// were queued are forgotten, never woken.
//
// Thread Safety: NOT safe for concurrent use with any other method.
func (s *Service) AfterFork() {
	discarded := 0
	for i := range s.buckets {
		discarded += s.buckets[i].n
		s.buckets[i] = bucket{}
	}
	s.stats.waiting.Store(0)
	s.log.Debug("parking: after fork reset", zap.Int("discarded", discarded))
}

// NumWaiters returns the number of goroutines parked on addr.
func (s *Service) NumWaiters(addr unsafe.Pointer) int {
	b := &s.buckets[bucketIndex(addr)]
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count(addr)
}

// NoteHandoff records that an unlock handed ownership to a woken waiter.
func (s *Service) NoteHandoff() {
	s.stats.handoffs.Add(1)
}

// Stats returns a snapshot of the activity counters.
func (s *Service) Stats() Stats {
	return s.stats.snapshot()
}

// Logger returns the Service's logger.
func (s *Service) Logger() *zap.Logger {
	return s.log
}

// load atomically reads the size-byte word at addr. size is 4 or 8.
func (s *Service) load(addr unsafe.Pointer, size uintptr) uint64 {
	if size == 4 {
		return uint64(atomic.LoadUint32((*uint32)(addr)))
	}
	return atomic.LoadUint64((*uint64)(addr))
}

func fromSema(r sema.Result) Result {
	switch r {
	case sema.TimedOut:
		return TimedOut
	case sema.Interrupted:
		return Interrupted
	default:
		return OK
	}
}
