package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Primitives parkbench knows how to drive, in "all" order.
var primitives = []string{"mutex", "rwmutex", "fairness", "seqlock", "once", "event"}

func knownPrimitive(name string) bool {
	for _, p := range primitives {
		if p == name {
			return true
		}
	}
	return false
}

// Scenario is a list of runs loaded from YAML:
//
//	runs:
//	  - name: contended
//	    primitive: mutex
//	    workers: 16
//	    duration: 2s
//	    hold: 10us
//	    spin_limit: 0
type Scenario struct {
	Runs []RunSpec `yaml:"runs"`
}

// RunSpec describes one benchmark run.
type RunSpec struct {
	Name      string        `yaml:"name"`
	Primitive string        `yaml:"primitive"`
	Workers   int           `yaml:"workers"`
	Duration  time.Duration `yaml:"duration"`

	// Hold is how long a worker keeps the lock per operation.
	Hold time.Duration `yaml:"hold"`

	// SpinLimit and FairnessWindow override the lock.Config defaults
	// when set.
	SpinLimit      *int          `yaml:"spin_limit"`
	FairnessWindow time.Duration `yaml:"fairness_window"`
}

// Validate checks a run and fills in its name.
func (r *RunSpec) Validate() error {
	if !knownPrimitive(r.Primitive) {
		return fmt.Errorf("unknown primitive %q", r.Primitive)
	}
	if r.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", r.Workers)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", r.Duration)
	}
	if r.Hold < 0 || r.FairnessWindow < 0 {
		return errors.New("hold and fairness_window must not be negative")
	}
	if r.SpinLimit != nil && *r.SpinLimit < 0 {
		return fmt.Errorf("spin_limit must not be negative, got %d", *r.SpinLimit)
	}
	if r.Name == "" {
		r.Name = r.Primitive
	}
	return nil
}

// Validate checks every run of s.
func (s *Scenario) Validate() error {
	if len(s.Runs) == 0 {
		return errors.New("scenario has no runs")
	}
	for i := range s.Runs {
		if err := s.Runs[i].Validate(); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
	}
	return nil
}

// ParseScenario decodes and validates a scenario. Unknown keys are
// rejected.
func ParseScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ParseScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
