package lock

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

func TestGetInfo(t *testing.T) {
	want := Info{Version: "v0.1.0", MajorMinor: "v0.1", Buckets: 257}
	if diff := cmp.Diff(want, GetInfo()); diff != "" {
		t.Errorf("GetInfo() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"v0.1.0", true},
		{"v0.0.9", true},
		{"v0.2.0", false},
		{"v1.0.0", false},
		{"0.1.0", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.v, func(t *testing.T) {
			qt.Assert(t, Compatible(tt.v), qt.Equals, tt.want)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()
	c.Assert(cfg.SpinLimit, qt.Equals, 40)
	c.Assert(cfg.FairnessWindow, qt.Equals, time.Millisecond)
	c.Assert(resolve(nil), qt.Equals, &defaultConfig)
	c.Assert(resolve(nil).parking(), qt.Equals, DefaultParkingService())
	c.Assert(resolve(nil).threadID() != 0, qt.IsTrue)
}

func TestConfig_FieldsTakenAsGiven(t *testing.T) {
	c := qt.New(t)
	svc := NewParkingService()
	m := NewMutex(Config{Parking: svc})
	c.Assert(m.cfg.SpinLimit, qt.Equals, 0)
	c.Assert(m.cfg.FairnessWindow, qt.Equals, time.Duration(0))
	c.Assert(m.cfg.parking(), qt.Equals, svc)
}
