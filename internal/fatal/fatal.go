// Package fatal reports misuse of a synchronization primitive.
//
// Misuse (unlocking an unlocked mutex, releasing a recursive mutex from a
// goroutine that does not own it) leaves other goroutines' invariants
// violated with no way to detect it later. It is therefore never returned
// as an error: Raise logs the violation and panics with a *UsageError
// before the offending call touches the state word.
package fatal

import (
	"fmt"

	"go.uber.org/zap"
)

// UsageError describes a violated precondition of a primitive.
type UsageError struct {
	// Primitive is the type that was misused, e.g. "Mutex".
	Primitive string

	// Op is the offending operation, e.g. "Unlock".
	Op string

	// Reason states the violated precondition.
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("parksync: %s.%s: %s", e.Primitive, e.Op, e.Reason)
}

// Raise logs the violation at error level and panics with a *UsageError.
// A nil logger means the global zap logger.
func Raise(log *zap.Logger, primitive, op, reason string) {
	if log == nil {
		log = zap.L()
	}
	err := &UsageError{Primitive: primitive, Op: op, Reason: reason}
	log.Error("fatal synchronization misuse",
		zap.String("primitive", primitive),
		zap.String("op", op),
		zap.String("reason", reason),
		zap.Stack("stack"),
	)
	panic(err)
}
