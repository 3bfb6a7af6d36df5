package lock

import "github.com/kolkov/parksync/internal/parking"

// ParkingService is the address-keyed wait/wake broker the blocking
// primitives sleep on.
type ParkingService = parking.Service

// ParkingOption configures a ParkingService.
type ParkingOption = parking.Option

// ParkingStats is a snapshot of ParkingService activity.
type ParkingStats = parking.Stats

// Hooks run around every park made with the Detach flag.
type Hooks = parking.Hooks

// NewParkingService returns an independent ParkingService.
func NewParkingService(opts ...ParkingOption) *ParkingService {
	return parking.New(opts...)
}

// DefaultParkingService returns the process-wide ParkingService.
func DefaultParkingService() *ParkingService {
	return parking.Default()
}

// WithLogger and WithHooks configure a ParkingService.
var (
	WithLogger = parking.WithLogger
	WithHooks  = parking.WithHooks
)
