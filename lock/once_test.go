package lock

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	qt "github.com/frankban/quicktest"
)

func TestOnceFlag_ExactlyOnce(t *testing.T) {
	c := qt.New(t)
	cfg, _, _ := testConfig(t)
	o := NewOnceFlag(cfg)

	var calls atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- o.CallOnce(func() error {
				calls.Add(1)
				time.Sleep(time.Millisecond)
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		c.Assert(err, qt.IsNil)
	}
	c.Assert(calls.Load(), qt.Equals, int32(1))
	c.Assert(o.Done(), qt.IsTrue)
}

func TestOnceFlag_RetryAfterError(t *testing.T) {
	c := qt.New(t)
	var o OnceFlag
	errInit := errors.New("init failed")

	c.Assert(o.CallOnce(func() error { return errInit }), qt.ErrorIs, errInit)
	c.Assert(o.Done(), qt.IsFalse)
	c.Assert(o.state.Load(), qt.Equals, onceUnlocked)

	c.Assert(o.CallOnce(func() error { return nil }), qt.IsNil)
	c.Assert(o.Done(), qt.IsTrue)

	called := false
	c.Assert(o.CallOnce(func() error { called = true; return errInit }), qt.IsNil)
	c.Assert(called, qt.IsFalse)
}

func TestOnceFlag_PanicResets(t *testing.T) {
	c := qt.New(t)
	var o OnceFlag

	func() {
		defer func() {
			c.Assert(recover(), qt.Equals, "boom")
		}()
		o.CallOnce(func() error { panic("boom") })
	}()
	c.Assert(o.Done(), qt.IsFalse)
	c.Assert(o.state.Load(), qt.Equals, onceUnlocked)

	c.Assert(o.CallOnce(func() error { return nil }), qt.IsNil)
	c.Assert(o.Done(), qt.IsTrue)
}

// TestOnceFlag_WaiterRunsAfterFailure verifies that a goroutine parked
// behind a failing attempt is woken and runs its own function.
func TestOnceFlag_WaiterRunsAfterFailure(t *testing.T) {
	c := qt.New(t)
	cfg, svc, _ := testConfig(t)
	o := NewOnceFlag(cfg)

	started := make(chan struct{})
	fail := make(chan struct{})
	firstErr := make(chan error)
	go func() {
		firstErr <- o.CallOnce(func() error {
			close(started)
			<-fail
			return errors.New("first attempt")
		})
	}()
	<-started

	secondErr := make(chan error)
	var secondRan atomic.Bool
	go func() {
		secondErr <- o.CallOnce(func() error {
			secondRan.Store(true)
			return nil
		})
	}()
	waitParked(t, svc, unsafe.Pointer(&o.state), 1)
	c.Assert(o.state.Load(), qt.Equals, onceLocked|onceParked)

	close(fail)
	c.Assert(<-firstErr, qt.ErrorMatches, "first attempt")
	c.Assert(<-secondErr, qt.IsNil)
	c.Assert(secondRan.Load(), qt.IsTrue)
	c.Assert(o.Done(), qt.IsTrue)
}
