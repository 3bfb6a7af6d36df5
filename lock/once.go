package lock

import (
	"context"
	"sync/atomic"
	"unsafe"
)

// OnceFlag states. onceParked combines with onceLocked.
const (
	onceUnlocked    uint32 = 0
	onceLocked      uint32 = 1
	onceParked      uint32 = 2
	onceInitialized uint32 = 4
)

// OnceFlag runs an initialization function exactly once successfully.
//
// Unlike sync.Once, a failed attempt does not count: if the function
// returns an error or panics, the flag is reset and the next CallOnce
// runs its function again.
//
// The zero value is ready to use with DefaultConfig.
type OnceFlag struct {
	state atomic.Uint32
	cfg   *Config
}

// NewOnceFlag returns a fresh OnceFlag using cfg.
func NewOnceFlag(cfg Config) *OnceFlag {
	return &OnceFlag{cfg: &cfg}
}

// CallOnce runs fn unless a previous call already succeeded. Concurrent
// callers wait for the running attempt; if it fails, one of them runs
// its own fn next. CallOnce returns fn's error, or nil if initialization
// had already happened.
//
// A panic in fn resets the flag, wakes waiters and is propagated.
func (o *OnceFlag) CallOnce(fn func() error) error {
	if o.state.Load() == onceInitialized {
		return nil
	}
	return o.callSlow(fn)
}

func (o *OnceFlag) callSlow(fn func() error) error {
	svc := resolve(o.cfg).parking()
	v := o.state.Load()
	for {
		switch {
		case v == onceInitialized:
			return nil
		case v == onceUnlocked:
			if o.state.CompareAndSwap(onceUnlocked, onceLocked) {
				return o.run(fn)
			}
			v = o.state.Load()
			continue
		case v&onceParked == 0:
			if !o.state.CompareAndSwap(v, v|onceParked) {
				v = o.state.Load()
				continue
			}
			v |= onceParked
		}
		svc.Park(context.Background(), unsafe.Pointer(&o.state), uint64(v), 4, Forever, nil, true)
		v = o.state.Load()
	}
}

func (o *OnceFlag) run(fn func() error) error {
	done := false
	defer func() {
		if !done {
			o.finish(false)
		}
	}()
	err := fn()
	done = true
	o.finish(err == nil)
	return err
}

func (o *OnceFlag) finish(ok bool) {
	next := onceUnlocked
	if ok {
		next = onceInitialized
	}
	if o.state.Swap(next)&onceParked != 0 {
		resolve(o.cfg).parking().UnparkAll(unsafe.Pointer(&o.state))
	}
}

// Done reports whether initialization has succeeded.
func (o *OnceFlag) Done() bool {
	return o.state.Load() == onceInitialized
}
