// Package main implements the parkbench CLI tool.
//
// parkbench drives the parksync primitives from many goroutines at once,
// checks after every run that the primitive kept its guarantee (no lost
// updates, no torn reads, exactly one successful initialization) and
// reports throughput together with the Parking Service counters.
//
// Usage:
//
//	parkbench mutex -workers 16 -duration 2s   # Contended Mutex
//	parkbench fairness -fairness 500us         # Worst-case acquire latency
//	parkbench all -metrics                     # Every primitive, then dump metrics
//	parkbench all -scenario runs.yaml          # Runs described in a YAML file
//
// Every flag can also be set through a PARKBENCH_<FLAG> environment
// variable or a plain "flag value" file given with -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"

	"github.com/kolkov/parksync/lock"
)

func main() {
	a := newApp(os.Stdout)
	if err := a.command().ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "parkbench: %v\n", err)
		os.Exit(1)
	}
}

// app holds the flag values and output shared by all subcommands.
type app struct {
	out io.Writer

	// log overrides the logger built from -v.
	log *zap.Logger

	workers  int
	duration time.Duration
	hold     time.Duration
	spin     int
	fairness time.Duration
	scenario string
	metrics  bool
	verbose  bool
}

func newApp(out io.Writer) *app {
	return &app{out: out}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&a.workers, "workers", 8, "number of concurrent goroutines")
	fs.DurationVar(&a.duration, "duration", time.Second, "length of each run")
	fs.DurationVar(&a.hold, "hold", 0, "time spent holding the lock per operation")
	fs.IntVar(&a.spin, "spin", lock.DefaultSpinLimit, "Mutex spin rounds before parking")
	fs.DurationVar(&a.fairness, "fairness", lock.DefaultFairnessWindow, "Mutex fairness window")
	fs.StringVar(&a.scenario, "scenario", "", "YAML file describing the runs (overrides the run flags)")
	fs.BoolVar(&a.metrics, "metrics", false, "print Prometheus metrics after the runs")
	fs.BoolVar(&a.verbose, "v", false, "verbose (development) logging")
	fs.String("config", "", "plain config file with one \"flag value\" per line")
	return fs
}

func (a *app) subcommand(name, help string) *ffcli.Command {
	return &ffcli.Command{
		Name:       name,
		ShortUsage: "parkbench " + name + " [flags]",
		ShortHelp:  help,
		FlagSet:    a.flagSet(name),
		Options: []ff.Option{
			ff.WithEnvVarPrefix("PARKBENCH"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
		},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %q", args)
			}
			return a.run(ctx, name)
		},
	}
}

func (a *app) command() *ffcli.Command {
	return &ffcli.Command{
		ShortUsage: "parkbench <subcommand> [flags]",
		ShortHelp:  "stress and measure parking-lot synchronization primitives",
		FlagSet:    flag.NewFlagSet("parkbench", flag.ContinueOnError),
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			a.subcommand("mutex", "contended Mutex lock/unlock"),
			a.subcommand("rwmutex", "readers and writers on an RWMutex"),
			a.subcommand("fairness", "Mutex acquire latency under the fairness window"),
			a.subcommand("seqlock", "one writer against optimistic SeqLock readers"),
			a.subcommand("once", "racing OnceFlag initialization with a failing first attempt"),
			a.subcommand("event", "waking parked goroutines with an Event"),
			a.subcommand("all", "every primitive in turn"),
			{
				Name:       "version",
				ShortUsage: "parkbench version",
				ShortHelp:  "print version information",
				Exec: func(context.Context, []string) error {
					info := lock.GetInfo()
					fmt.Fprintf(a.out, "parkbench %s (%d parking buckets)\n", info.Version, info.Buckets)
					return nil
				},
			},
		},
	}
}

// plan returns the runs for subcommand name.
func (a *app) plan(name string) ([]RunSpec, error) {
	if a.scenario != "" {
		s, err := LoadScenario(a.scenario)
		if err != nil {
			return nil, err
		}
		var runs []RunSpec
		for _, r := range s.Runs {
			if name == "all" || r.Primitive == name {
				runs = append(runs, r)
			}
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("%s: no %s runs", a.scenario, name)
		}
		return runs, nil
	}

	names := []string{name}
	if name == "all" {
		names = primitives
	}
	spin := a.spin
	runs := make([]RunSpec, 0, len(names))
	for _, p := range names {
		r := RunSpec{
			Primitive:      p,
			Workers:        a.workers,
			Duration:       a.duration,
			Hold:           a.hold,
			SpinLimit:      &spin,
			FairnessWindow: a.fairness,
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func (a *app) logger() (*zap.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}
	if a.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (a *app) run(ctx context.Context, name string) error {
	runs, err := a.plan(name)
	if err != nil {
		return err
	}
	log, err := a.logger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	svc := lock.NewParkingService(lock.WithLogger(log))
	m := newMetrics(svc)

	var failed []error
	for _, spec := range runs {
		log.Debug("starting run",
			zap.String("run", spec.Name),
			zap.String("primitive", spec.Primitive),
			zap.Int("workers", spec.Workers),
			zap.Duration("duration", spec.Duration),
		)
		res, err := runSpec(ctx, spec, svc)
		m.observe(res, err)
		if err != nil {
			log.Error("run failed", zap.String("run", spec.Name), zap.Error(err))
			failed = append(failed, fmt.Errorf("%s: %w", spec.Name, err))
			fmt.Fprintf(a.out, "%-12s %-9s FAIL %v\n", spec.Name, spec.Primitive, err)
			continue
		}
		fmt.Fprintln(a.out, summary(res))
	}

	st := svc.Stats()
	log.Info("parking service",
		zap.Uint64("parks", st.Parks),
		zap.Uint64("unparks", st.Unparks),
		zap.Uint64("handoffs", st.Handoffs),
		zap.Uint64("timeouts", st.TimedOut),
	)

	if a.metrics {
		if err := m.write(a.out); err != nil {
			return err
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d runs failed: %w", len(failed), len(runs), errors.Join(failed...))
	}
	return nil
}

func summary(res result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-9s ok   workers=%-3d ops=%-10d ops/s=%.0f",
		res.spec.Name, res.spec.Primitive, res.spec.Workers, res.ops, res.opsPerSec())
	if res.spec.Primitive == "fairness" {
		fmt.Fprintf(&b, " max_wait=%v", res.maxWait)
	}
	return b.String()
}
