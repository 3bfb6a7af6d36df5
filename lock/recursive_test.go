package lock

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestRecursiveMutex_Reentrant(t *testing.T) {
	c := qt.New(t)
	var r RecursiveMutex

	r.Lock()
	r.Lock()
	c.Assert(r.LockTimeout(0), qt.Equals, Acquired)
	c.Assert(r.IsLockedByCurrent(), qt.IsTrue)
	c.Assert(r.level, qt.Equals, 2)

	r.Unlock()
	r.Unlock()
	c.Assert(r.IsLockedByCurrent(), qt.IsTrue)
	r.Unlock()
	c.Assert(r.IsLockedByCurrent(), qt.IsFalse)
	c.Assert(r.mu.IsLocked(), qt.IsFalse)
}

func TestRecursiveMutex_OtherGoroutineWaits(t *testing.T) {
	c := qt.New(t)
	cfg, _, _ := testConfig(t)
	r := NewRecursiveMutex(cfg)
	r.Lock()

	type result struct {
		status Status
		err    error
		owns   bool
	}
	ch := make(chan result)
	go func() {
		var res result
		res.status = r.LockTimeout(5 * time.Millisecond)
		res.err = r.TryUnlock()
		res.owns = r.IsLockedByCurrent()
		ch <- res
	}()
	res := <-ch
	c.Assert(res.status, qt.Equals, Timeout)
	c.Assert(res.err, qt.ErrorIs, ErrNotOwner)
	c.Assert(res.owns, qt.IsFalse)

	c.Assert(r.TryUnlock(), qt.IsNil)

	go func() {
		var res result
		if r.TryLock() {
			res.owns = r.IsLockedByCurrent()
			r.Unlock()
		}
		ch <- res
	}()
	res = <-ch
	c.Assert(res.owns, qt.IsTrue)
}

func TestRecursiveMutex_UnlockByNonOwner(t *testing.T) {
	c := qt.New(t)
	cfg, _, logs := testConfig(t)
	r := NewRecursiveMutex(cfg)

	ue := expectUsageError(t, r.Unlock)
	c.Assert(ue.Primitive, qt.Equals, "RecursiveMutex")
	c.Assert(logs.Len(), qt.Equals, 1)
	c.Assert(r.owner.Load(), qt.Equals, int64(0))
}

func TestRecursiveMutex_CustomThreadID(t *testing.T) {
	c := qt.New(t)
	cfg, _, _ := testConfig(t)
	cfg.ThreadID = func() int64 { return 7 }
	r := NewRecursiveMutex(cfg)

	r.Lock()
	done := make(chan Status)
	go func() {
		// Same identity, so this re-enters instead of blocking.
		done <- r.LockTimeout(0)
	}()
	c.Assert(<-done, qt.Equals, Acquired)
	c.Assert(r.level, qt.Equals, 1)
	r.Unlock()
	r.Unlock()
	c.Assert(r.mu.IsLocked(), qt.IsFalse)
}
