package fatal

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestRaise_PanicsWithUsageError verifies the panic value and its message.
func TestRaise_PanicsWithUsageError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T is not an error", r)
		}
		var ue *UsageError
		if !errors.As(err, &ue) {
			t.Fatalf("panic value %T is not a *UsageError", r)
		}
		if ue.Primitive != "Mutex" || ue.Op != "Unlock" {
			t.Errorf("UsageError = %+v", ue)
		}
		if got, want := ue.Error(), "parksync: Mutex.Unlock: mutex is not locked"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if logs.Len() != 1 {
			t.Fatalf("logged %d entries, want 1", logs.Len())
		}
		entry := logs.All()[0]
		if entry.ContextMap()["primitive"] != "Mutex" {
			t.Errorf("log fields = %v", entry.ContextMap())
		}
	}()

	Raise(log, "Mutex", "Unlock", "mutex is not locked")
	t.Fatal("Raise returned")
}

// TestRaise_NilLogger verifies the global logger is used when none is given.
func TestRaise_NilLogger(t *testing.T) {
	defer func() {
		if _, ok := recover().(*UsageError); !ok {
			t.Fatal("expected *UsageError panic")
		}
	}()
	Raise(nil, "RWMutex", "RUnlock", "not read-locked")
}
