package lock

import "github.com/kolkov/parksync/internal/rawmutex"

// RawMutex is a word-sized lock that queues waiters on the word itself
// and never uses the Parking Service. The Parking Service guards its
// buckets with it.
//
// The zero value is unlocked. Unlocking an unlocked RawMutex panics with
// a *UsageError.
type RawMutex = rawmutex.Mutex
