package lock

import (
	"time"

	"go.uber.org/zap"

	"github.com/kolkov/parksync/internal/goid"
	"github.com/kolkov/parksync/internal/parking"
)

// Default tuning values.
const (
	// DefaultSpinLimit is the number of yield-and-retry rounds a Mutex
	// makes before parking. The value is a tuning constant with no
	// derivation beyond measurement.
	DefaultSpinLimit = 40

	// DefaultFairnessWindow is how long a Mutex waiter may lose races to
	// newcomers before the next unlock hands the lock to it directly.
	DefaultFairnessWindow = time.Millisecond
)

// Config tunes the primitives created by the New* constructors.
// Zero-value primitives use DefaultConfig.
//
// Every field is taken as given, including zero SpinLimit and
// FairnessWindow. Derive custom configurations from DefaultConfig:
//
//	cfg := lock.DefaultConfig()
//	cfg.Parking = svc
type Config struct {
	// Parking is the Parking Service to block on. Nil means the
	// process-wide DefaultParkingService.
	Parking *ParkingService

	// SpinLimit bounds the spin phase of Mutex.Lock. Zero disables
	// spinning. Spinning only happens when GOMAXPROCS > 1.
	SpinLimit int

	// FairnessWindow is measured from the start of a Lock call. A waiter
	// woken after its window has elapsed receives ownership directly from
	// the unlocker. Zero makes every wake a hand-off.
	FairnessWindow time.Duration

	// ThreadID identifies the calling goroutine for RecursiveMutex. Nil
	// means the runtime goroutine id. Zero is reserved for "no owner".
	ThreadID func() int64

	// Logger receives usage-error reports. Nil means the Parking
	// Service's logger.
	Logger *zap.Logger
}

// DefaultConfig returns the configuration used by zero-value primitives.
func DefaultConfig() Config {
	return Config{
		SpinLimit:      DefaultSpinLimit,
		FairnessWindow: DefaultFairnessWindow,
	}
}

var defaultConfig = DefaultConfig()

// resolve returns c, or the default configuration if c is nil.
func resolve(c *Config) *Config {
	if c == nil {
		return &defaultConfig
	}
	return c
}

func (c *Config) parking() *parking.Service {
	if c.Parking != nil {
		return c.Parking
	}
	return parking.Default()
}

func (c *Config) threadID() int64 {
	if c.ThreadID != nil {
		return c.ThreadID()
	}
	return int64(goid.Current())
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return c.parking().Logger()
}
