package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/parksync/lock"
)

// result is the outcome of one run.
type result struct {
	spec    RunSpec
	ops     uint64
	elapsed time.Duration

	// maxWait is the longest single acquire, for the fairness run.
	maxWait time.Duration
}

func (r result) opsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.ops) / r.elapsed.Seconds()
}

type driver func(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error)

var drivers = map[string]driver{
	"mutex":    benchMutex,
	"rwmutex":  benchRWMutex,
	"fairness": benchFairness,
	"seqlock":  benchSeqLock,
	"once":     benchOnce,
	"event":    benchEvent,
}

// runSpec executes spec against svc and checks the primitive's
// invariant. The returned error describes a violated invariant.
func runSpec(ctx context.Context, spec RunSpec, svc *lock.ParkingService) (result, error) {
	cfg := lock.DefaultConfig()
	cfg.Parking = svc
	if spec.SpinLimit != nil {
		cfg.SpinLimit = *spec.SpinLimit
	}
	if spec.FairnessWindow > 0 {
		cfg.FairnessWindow = spec.FairnessWindow
	}

	drive, ok := drivers[spec.Primitive]
	if !ok {
		return result{spec: spec}, fmt.Errorf("unknown primitive %q", spec.Primitive)
	}

	ctx, cancel := context.WithTimeout(ctx, spec.Duration)
	defer cancel()

	start := time.Now()
	res, err := drive(ctx, spec, cfg)
	res.spec = spec
	res.elapsed = time.Since(start)
	return res, err
}

func hold(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func benchMutex(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error) {
	mu := lock.NewMutex(cfg)
	var counter uint64
	var ops atomic.Uint64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < spec.Workers; i++ {
		g.Go(func() error {
			var n uint64
			for ctx.Err() == nil {
				mu.Lock()
				counter++
				hold(spec.Hold)
				mu.Unlock()
				n++
			}
			ops.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result{}, err
	}

	res := result{ops: ops.Load()}
	if counter != res.ops {
		return res, fmt.Errorf("lost updates: counter %d after %d operations", counter, res.ops)
	}
	return res, nil
}

// benchFairness is benchMutex with every acquire timed, so the report
// shows the worst wait the fairness window allowed.
func benchFairness(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error) {
	mu := lock.NewMutex(cfg)
	var counter uint64
	var ops atomic.Uint64
	var maxWait atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < spec.Workers; i++ {
		g.Go(func() error {
			var n uint64
			for ctx.Err() == nil {
				start := time.Now()
				if st := mu.LockTimeout(lock.Forever); st != lock.Acquired {
					return fmt.Errorf("lock returned %v", st)
				}
				wait := int64(time.Since(start))
				counter++
				hold(spec.Hold)
				mu.Unlock()
				n++

				for {
					cur := maxWait.Load()
					if wait <= cur || maxWait.CompareAndSwap(cur, wait) {
						break
					}
				}
			}
			ops.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result{}, err
	}

	res := result{ops: ops.Load(), maxWait: time.Duration(maxWait.Load())}
	if counter != res.ops {
		return res, fmt.Errorf("lost updates: counter %d after %d operations", counter, res.ops)
	}
	return res, nil
}

// benchRWMutex runs one writer per four workers; the rest read and check
// that the writers' paired updates are never seen half done.
func benchRWMutex(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error) {
	rw := lock.NewRWMutex(cfg)
	var a, b uint64
	var ops atomic.Uint64
	writers := max(1, spec.Workers/4)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < spec.Workers; i++ {
		writer := i < writers
		g.Go(func() error {
			var n uint64
			for ctx.Err() == nil {
				if writer {
					rw.Lock()
					a++
					hold(spec.Hold)
					b++
					rw.Unlock()
				} else {
					rw.RLock()
					x, y := a, b
					rw.RUnlock()
					if x != y {
						return fmt.Errorf("reader saw partial write: %d != %d", x, y)
					}
				}
				n++
			}
			ops.Add(n)
			return nil
		})
	}
	err := g.Wait()
	return result{ops: ops.Load()}, err
}

// benchSeqLock runs a single writer against optimistic readers.
func benchSeqLock(ctx context.Context, spec RunSpec, _ lock.Config) (result, error) {
	var seq lock.SeqLock
	var x, y atomic.Uint64
	var ops atomic.Uint64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var n uint64
		for ctx.Err() == nil {
			seq.LockWrite()
			x.Add(1)
			hold(spec.Hold)
			y.Add(1)
			seq.UnlockWrite()
			n++
		}
		ops.Add(n)
		return nil
	})
	for i := 1; i < spec.Workers; i++ {
		g.Go(func() error {
			var n uint64
			for ctx.Err() == nil {
				var p, q uint64
				seq.Read(func() {
					p = x.Load()
					q = y.Load()
				})
				if p != q {
					return fmt.Errorf("torn read: %d != %d", p, q)
				}
				n++
			}
			ops.Add(n)
			return nil
		})
	}
	err := g.Wait()
	return result{ops: ops.Load()}, err
}

var errNotYet = errors.New("initialization deliberately failed")

// benchOnce repeatedly races all workers through a fresh OnceFlag whose
// first attempt fails, and checks that exactly one attempt succeeds.
func benchOnce(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error) {
	var res result
	for ctx.Err() == nil {
		once := lock.NewOnceFlag(cfg)
		var attempts, successes atomic.Int32
		initialize := func() error {
			if attempts.Add(1) == 1 {
				return errNotYet
			}
			successes.Add(1)
			hold(spec.Hold)
			return nil
		}

		var g errgroup.Group
		for i := 0; i < spec.Workers; i++ {
			g.Go(func() error {
				// Retry until some worker's attempt succeeds.
				for once.CallOnce(initialize) != nil {
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}
		if s := successes.Load(); s != 1 {
			return res, fmt.Errorf("initializer succeeded %d times", s)
		}
		res.ops += uint64(spec.Workers)
	}
	return res, nil
}

// benchEvent repeatedly parks all workers on a fresh Event and releases
// them with a single Notify.
func benchEvent(ctx context.Context, spec RunSpec, cfg lock.Config) (result, error) {
	var res result
	for ctx.Err() == nil {
		ev := lock.NewEvent(cfg)

		var g errgroup.Group
		for i := 0; i < spec.Workers; i++ {
			g.Go(func() error {
				if !ev.WaitTimeout(10 * time.Second) {
					return errors.New("event wait timed out")
				}
				return nil
			})
		}
		hold(spec.Hold)
		ev.Notify()
		if err := g.Wait(); err != nil {
			return res, err
		}
		res.ops += uint64(spec.Workers)
	}
	return res, nil
}
