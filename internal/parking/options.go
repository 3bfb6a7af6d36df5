package parking

import "go.uber.org/zap"

// Hooks are called around every blocking park made with detach set.
//
// They let an embedding runtime release and reacquire a scheduler-wide
// resource while the goroutine sleeps. Both default to no-ops.
type Hooks struct {
	// OnSuspend runs immediately before the goroutine blocks.
	OnSuspend func()

	// OnResume runs immediately after the goroutine wakes, whatever the
	// reason.
	OnResume func()
}

func (h Hooks) suspend() {
	if h.OnSuspend != nil {
		h.OnSuspend()
	}
}

func (h Hooks) resume() {
	if h.OnResume != nil {
		h.OnResume()
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for diagnostics and usage errors.
// The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHooks installs the suspend/resume hooks.
func WithHooks(h Hooks) Option {
	return func(s *Service) {
		s.hooks = h
	}
}
