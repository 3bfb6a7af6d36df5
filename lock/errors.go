package lock

import (
	"errors"

	"github.com/kolkov/parksync/internal/fatal"
)

// UsageError is the panic value raised when a primitive is misused, for
// example by unlocking a Mutex that is not locked. Misuse is a
// programming error: the panic is not meant to be recovered outside of
// tests.
type UsageError = fatal.UsageError

// ErrNotOwner is returned by RecursiveMutex.TryUnlock when the calling
// goroutine does not hold the lock.
var ErrNotOwner = errors.New("parksync: recursive mutex is not owned by the calling goroutine")
