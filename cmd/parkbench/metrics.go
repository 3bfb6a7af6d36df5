package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	"github.com/kolkov/parksync/internal/parking/parkmetrics"
	"github.com/kolkov/parksync/lock"
)

const namespace = "parkbench"

// metrics are the per-run series recorded next to the Parking Service
// counters.
type metrics struct {
	reg       *prometheus.Registry
	ops       *prometheus.CounterVec
	opsPerSec *prometheus.GaugeVec
	maxWait   *prometheus.GaugeVec
	failures  *prometheus.CounterVec
}

func newMetrics(svc *lock.ParkingService) *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations completed, by run and primitive.",
		}, []string{"run", "primitive"}),
		opsPerSec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_per_second",
			Help:      "Throughput of the last completed run.",
		}, []string{"run", "primitive"}),
		maxWait: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_wait_seconds",
			Help:      "Longest single acquire observed by a fairness run.",
		}, []string{"run"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_runs_total",
			Help:      "Runs whose invariant check failed.",
		}, []string{"primitive"}),
	}
	m.reg.MustRegister(
		m.ops, m.opsPerSec, m.maxWait, m.failures,
		parkmetrics.New(svc, namespace),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) observe(res result, err error) {
	labels := prometheus.Labels{"run": res.spec.Name, "primitive": res.spec.Primitive}
	if err != nil {
		m.failures.WithLabelValues(res.spec.Primitive).Inc()
		return
	}
	m.ops.With(labels).Add(float64(res.ops))
	m.opsPerSec.With(labels).Set(res.opsPerSec())
	if res.spec.Primitive == "fairness" {
		m.maxWait.WithLabelValues(res.spec.Name).Set(res.maxWait.Seconds())
	}
}

// write dumps every gathered family in the Prometheus text format.
func (m *metrics) write(w io.Writer) error {
	mfs, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}
