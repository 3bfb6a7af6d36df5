package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	qt "github.com/frankban/quicktest"
)

func TestMutex_ZeroValue(t *testing.T) {
	c := qt.New(t)
	var m Mutex

	c.Assert(m.IsLocked(), qt.IsFalse)
	m.Lock()
	c.Assert(m.IsLocked(), qt.IsTrue)
	m.Unlock()
	c.Assert(m.IsLocked(), qt.IsFalse)
	c.Assert(m.state.Load(), qt.Equals, uint32(0))
}

func TestMutex_TryLock(t *testing.T) {
	c := qt.New(t)
	var m Mutex

	c.Assert(m.TryLock(), qt.IsTrue)
	c.Assert(m.TryLock(), qt.IsFalse)
	c.Assert(m.LockTimeout(0), qt.Equals, Failure)
	m.Unlock()
	c.Assert(m.TryLock(), qt.IsTrue)
	m.Unlock()
}

func TestMutex_TryLockWithParkedWaiters(t *testing.T) {
	c := qt.New(t)
	var m Mutex
	m.state.Store(mutexHasParked)

	c.Assert(m.TryLock(), qt.IsTrue)
	c.Assert(m.state.Load(), qt.Equals, mutexLocked|mutexHasParked)
}

func TestMutex_LockTimeout(t *testing.T) {
	c := qt.New(t)
	cfg, svc, _ := testConfig(t)
	m := NewMutex(cfg)
	m.Lock()

	start := time.Now()
	c.Assert(m.LockTimeout(5*time.Millisecond), qt.Equals, Timeout)
	c.Assert(time.Since(start) >= 5*time.Millisecond, qt.IsTrue)
	c.Assert(svc.Stats().TimedOut, qt.Equals, uint64(1))

	// The stale has-parked bit is cleared by the next unlock.
	c.Assert(m.state.Load(), qt.Equals, mutexLocked|mutexHasParked)
	m.Unlock()
	c.Assert(m.state.Load(), qt.Equals, uint32(0))
}

func TestMutex_MutualExclusion(t *testing.T) {
	cfg, _, _ := testConfig(t)
	cfg.SpinLimit = DefaultSpinLimit
	m := NewMutex(cfg)

	const goroutines, iterations = 8, 2000
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				m.Lock()
				counter++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	qt.Assert(t, counter, qt.Equals, goroutines*iterations)
	qt.Assert(t, m.IsLocked(), qt.IsFalse)
}

// TestMutex_FairnessHandoff verifies that a waiter parked longer than the
// fairness window receives the lock directly, so a newcomer cannot barge.
func TestMutex_FairnessHandoff(t *testing.T) {
	c := qt.New(t)
	cfg, svc, _ := testConfig(t)
	cfg.FairnessWindow = time.Millisecond
	m := NewMutex(cfg)
	m.Lock()

	acquired := make(chan Status)
	release := make(chan struct{})
	go func() {
		st := m.LockTimeout(Forever)
		acquired <- st
		<-release
		m.Unlock()
	}()

	waitParked(t, svc, unsafe.Pointer(&m.state), 1)
	time.Sleep(5 * time.Millisecond)
	m.Unlock()

	c.Assert(m.TryLock(), qt.IsFalse)
	c.Assert(<-acquired, qt.Equals, Acquired)
	c.Assert(svc.Stats().Handoffs, qt.Equals, uint64(1))
	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for m.IsLocked() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Microsecond)
	}
	c.Assert(m.IsLocked(), qt.IsFalse)
}

// TestMutex_HandoffRacingTimeout hands the lock off on every wake while
// waiters time out after a few microseconds, so some hand-offs target a
// waiter whose timeout already fired. Such a waiter must still take the
// lock instead of leaking it.
func TestMutex_HandoffRacingTimeout(t *testing.T) {
	c := qt.New(t)
	cfg, svc, _ := testConfig(t)
	cfg.FairnessWindow = 0
	m := NewMutex(cfg)

	const goroutines, iterations = 8, 5000
	var counter, acquired int64
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if m.LockTimeout(time.Duration(1+j%3)*time.Microsecond) != Acquired {
					continue
				}
				counter++
				acquired++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	c.Assert(counter, qt.Equals, acquired)
	c.Assert(acquired > 0, qt.IsTrue)
	c.Assert(m.IsLocked(), qt.IsFalse)
	c.Assert(svc.Stats().Waiting, qt.Equals, int64(0))

	// A stale has-parked bit is cleared by the next uncontended cycle.
	m.Lock()
	m.Unlock()
	c.Assert(m.state.Load(), qt.Equals, uint32(0))
}

func TestMutex_NoHandoffWithinWindow(t *testing.T) {
	c := qt.New(t)
	cfg, svc, _ := testConfig(t)
	cfg.FairnessWindow = time.Hour
	m := NewMutex(cfg)
	m.Lock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		m.Unlock()
		close(done)
	}()

	waitParked(t, svc, unsafe.Pointer(&m.state), 1)
	m.Unlock()
	<-done

	c.Assert(svc.Stats().Handoffs, qt.Equals, uint64(0))
	c.Assert(m.IsLocked(), qt.IsFalse)
}

func TestMutex_UnlockUnlocked(t *testing.T) {
	c := qt.New(t)
	cfg, _, logs := testConfig(t)
	m := NewMutex(cfg)

	ue := expectUsageError(t, m.Unlock)
	c.Assert(ue.Primitive, qt.Equals, "Mutex")
	c.Assert(ue.Op, qt.Equals, "Unlock")
	c.Assert(logs.Len(), qt.Equals, 1)
	c.Assert(m.state.Load(), qt.Equals, uint32(0))
}

func TestMutex_Interruption(t *testing.T) {
	errAbort := errors.New("abort")

	tests := []struct {
		name    string
		opts    LockOptions
		want    Status
		handled int32
	}{
		{
			name: "ignored",
			opts: LockOptions{Timeout: 10 * time.Millisecond},
			want: Timeout,
		},
		{
			name: "fail",
			opts: LockOptions{Timeout: Forever, Flags: FailIfInterrupted},
			want: Interrupted,
		},
		{
			name:    "handled",
			opts:    LockOptions{Timeout: 10 * time.Millisecond, Flags: HandleInterrupts},
			want:    Timeout,
			handled: 1,
		},
		{
			name:    "handler error",
			opts:    LockOptions{Timeout: Forever, Flags: HandleInterrupts},
			want:    Interrupted,
			handled: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			cfg, _, _ := testConfig(t)
			m := NewMutex(cfg)
			m.Lock()
			defer m.Unlock()

			var calls atomic.Int32
			opts := tt.opts
			if opts.Flags&HandleInterrupts != 0 {
				opts.OnInterrupt = func(ctx context.Context) error {
					calls.Add(1)
					c.Check(ctx.Err(), qt.ErrorIs, context.Canceled)
					if tt.name == "handler error" {
						return errAbort
					}
					return nil
				}
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			c.Assert(m.LockWithOptions(ctx, opts), qt.Equals, tt.want)
			c.Assert(calls.Load(), qt.Equals, tt.handled)
		})
	}
}

func TestMutex_DetachRunsHooks(t *testing.T) {
	c := qt.New(t)
	var suspended, resumed atomic.Int32
	svc := NewParkingService(WithHooks(Hooks{
		OnSuspend: func() { suspended.Add(1) },
		OnResume:  func() { resumed.Add(1) },
	}))
	cfg := DefaultConfig()
	cfg.Parking = svc
	cfg.SpinLimit = 0

	m := NewMutex(cfg)
	m.Lock()
	c.Assert(m.LockWithOptions(context.Background(), LockOptions{Timeout: time.Millisecond}), qt.Equals, Timeout)
	c.Assert(suspended.Load(), qt.Equals, int32(0))

	c.Assert(m.LockTimeout(time.Millisecond), qt.Equals, Timeout)
	c.Assert(suspended.Load(), qt.Equals, int32(1))
	c.Assert(resumed.Load(), qt.Equals, int32(1))
	m.Unlock()
}

func TestStatusString(t *testing.T) {
	c := qt.New(t)
	c.Assert(Acquired.String(), qt.Equals, "acquired")
	c.Assert(Failure.String(), qt.Equals, "failure")
	c.Assert(Timeout.String(), qt.Equals, "timeout")
	c.Assert(Interrupted.String(), qt.Equals, "interrupted")
	c.Assert(Status(42).String(), qt.Equals, "unknown")
}

func BenchmarkMutex_Uncontended(b *testing.B) {
	var m Mutex
	for i := 0; i < b.N; i++ {
		m.Lock()
		m.Unlock()
	}
}

func BenchmarkMutex_Contended(b *testing.B) {
	var m Mutex
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Lock()
			m.Unlock()
		}
	})
}
