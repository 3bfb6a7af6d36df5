package lock

import (
	"testing"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// testConfig returns a Config with its own Parking Service and no
// spinning, plus the observed error logs of that service.
func testConfig(t *testing.T) (Config, *ParkingService, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.ErrorLevel)
	svc := NewParkingService(WithLogger(zap.New(core)))
	cfg := DefaultConfig()
	cfg.Parking = svc
	cfg.SpinLimit = 0
	return cfg, svc, logs
}

// waitParked polls until n goroutines are parked on addr.
func waitParked(t *testing.T, svc *ParkingService, addr unsafe.Pointer, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for svc.NumWaiters(addr) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d parked goroutines, have %d", n, svc.NumWaiters(addr))
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// expectUsageError runs fn and returns the *UsageError it panics with.
func expectUsageError(t *testing.T, fn func()) (ue *UsageError) {
	t.Helper()
	defer func() {
		r := recover()
		var ok bool
		if ue, ok = r.(*UsageError); !ok {
			t.Fatalf("panic value = %#v, want *UsageError", r)
		}
	}()
	fn()
	return nil
}
