package lock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kolkov/parksync/internal/fatal"
)

// RecursiveMutex is a Mutex that the owning goroutine may lock again.
// Each Lock must be matched by an Unlock from the same goroutine.
//
// The zero value is unlocked and uses DefaultConfig.
type RecursiveMutex struct {
	mu    Mutex
	owner atomic.Int64 // 0 when unowned
	level int          // extra acquisitions by owner; owner only
}

// NewRecursiveMutex returns an unlocked RecursiveMutex using cfg. The
// advice on building cfg given for NewMutex applies here too.
func NewRecursiveMutex(cfg Config) *RecursiveMutex {
	return &RecursiveMutex{mu: Mutex{cfg: &cfg}}
}

func (r *RecursiveMutex) config() *Config {
	return resolve(r.mu.cfg)
}

// Lock acquires r, or increments its level if the caller owns it.
func (r *RecursiveMutex) Lock() {
	id := r.config().threadID()
	if r.owner.Load() == id {
		r.level++
		return
	}
	r.mu.Lock()
	r.owner.Store(id)
}

// TryLock acquires r without waiting.
func (r *RecursiveMutex) TryLock() bool {
	return r.LockTimeout(0) == Acquired
}

// LockTimeout acquires r, waiting at most d.
func (r *RecursiveMutex) LockTimeout(d time.Duration) Status {
	return r.LockWithOptions(context.Background(), LockOptions{Timeout: d, Flags: Detach})
}

// LockWithOptions acquires r as directed by opts.
func (r *RecursiveMutex) LockWithOptions(ctx context.Context, opts LockOptions) Status {
	id := r.config().threadID()
	if r.owner.Load() == id {
		r.level++
		return Acquired
	}
	st := r.mu.LockWithOptions(ctx, opts)
	if st == Acquired {
		r.owner.Store(id)
	}
	return st
}

// TryUnlock undoes one Lock by the calling goroutine. It returns
// ErrNotOwner, leaving r untouched, if the caller does not own r.
func (r *RecursiveMutex) TryUnlock() error {
	id := r.config().threadID()
	if r.owner.Load() != id {
		return ErrNotOwner
	}
	if r.level > 0 {
		r.level--
		return nil
	}
	r.owner.Store(0)
	r.mu.Unlock()
	return nil
}

// Unlock is TryUnlock that panics with a *UsageError if the caller does
// not own r.
func (r *RecursiveMutex) Unlock() {
	if err := r.TryUnlock(); err != nil {
		fatal.Raise(r.config().logger(), "RecursiveMutex", "Unlock", "unlock by non-owner")
	}
}

// IsLockedByCurrent reports whether the calling goroutine owns r.
func (r *RecursiveMutex) IsLockedByCurrent() bool {
	return r.owner.Load() == r.config().threadID()
}
