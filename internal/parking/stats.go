package parking

import "sync/atomic"

// Stats is a snapshot of Parking Service activity counters.
type Stats struct {
	// Parks counts goroutines that were queued and went to sleep.
	Parks uint64

	// Again counts Park calls rejected because the word had changed.
	Again uint64

	// TimedOut counts parks that ended because the timeout elapsed.
	TimedOut uint64

	// Interrupted counts parks that ended because the context was done.
	Interrupted uint64

	// Unparks counts waiters woken by Unpark or UnparkAll.
	Unparks uint64

	// Handoffs counts unlocks that transferred ownership directly to the
	// woken waiter. Primitives report them through NoteHandoff.
	Handoffs uint64

	// Waiting is the number of goroutines parked right now.
	Waiting int64
}

type counters struct {
	parks       atomic.Uint64
	again       atomic.Uint64
	timedOut    atomic.Uint64
	interrupted atomic.Uint64
	unparks     atomic.Uint64
	handoffs    atomic.Uint64
	waiting     atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Parks:       c.parks.Load(),
		Again:       c.again.Load(),
		TimedOut:    c.timedOut.Load(),
		Interrupted: c.interrupted.Load(),
		Unparks:     c.unparks.Load(),
		Handoffs:    c.handoffs.Load(),
		Waiting:     c.waiting.Load(),
	}
}
