package lock

import (
	"sync/atomic"

	"github.com/kolkov/parksync/internal/fatal"
	"github.com/kolkov/parksync/internal/yield"
)

// SeqLock lets readers run concurrently with one writer and detect,
// after the fact, whether a write overlapped their read. The sequence is
// odd while a write is in progress and advances by two per completed
// write.
//
// Readers retry; they never block writers. Data protected by a SeqLock
// must itself be accessed with atomics so that an overlapping read is
// merely inconsistent, never a data race.
//
// A SeqLock never parks; waiting is done by yielding. It has no Config,
// so misuse is reported to the global zap logger (zap.L). The zero value
// is ready to use.
type SeqLock struct {
	seq atomic.Uint32
}

// LockWrite waits until no write is in progress and starts one.
func (s *SeqLock) LockWrite() {
	prev := s.seq.Load()
	for {
		if prev&1 == 0 && s.seq.CompareAndSwap(prev, prev+1) {
			return
		}
		yield.Processor()
		prev = s.seq.Load()
	}
}

// UnlockWrite completes the write in progress.
func (s *SeqLock) UnlockWrite() {
	seq := s.seq.Load()
	if seq&1 == 0 {
		fatal.Raise(nil, "SeqLock", "UnlockWrite", "no write in progress")
	}
	s.seq.Store(seq + 1)
}

// AbandonWrite ends the write in progress and restores the sequence it
// started from. Use it only when the protected data was left unchanged.
func (s *SeqLock) AbandonWrite() {
	seq := s.seq.Load()
	if seq&1 == 0 {
		fatal.Raise(nil, "SeqLock", "AbandonWrite", "no write in progress")
	}
	s.seq.Store(seq - 1)
}

// BeginRead waits out any write in progress and returns the even
// sequence to pass to EndRead.
func (s *SeqLock) BeginRead() uint32 {
	seq := s.seq.Load()
	for seq&1 != 0 {
		yield.Processor()
		seq = s.seq.Load()
	}
	return seq
}

// EndRead reports whether the data read since BeginRead returned seq is
// consistent. On false the caller must discard it and retry.
func (s *SeqLock) EndRead(seq uint32) bool {
	if s.seq.Load() == seq {
		return true
	}
	yield.Processor()
	return false
}

// Read calls fn until it observes a consistent snapshot.
func (s *SeqLock) Read(fn func()) {
	for {
		seq := s.BeginRead()
		fn()
		if s.EndRead(seq) {
			return
		}
	}
}

// AfterFork resets a sequence left odd by a writer that no longer
// exists. It reports whether a reset happened.
func (s *SeqLock) AfterFork() bool {
	if s.seq.Load()&1 == 0 {
		return false
	}
	s.seq.Store(0)
	return true
}

// Sequence returns the current sequence number.
func (s *SeqLock) Sequence() uint32 {
	return s.seq.Load()
}
