// Package parkmetrics exports Parking Service counters as Prometheus
// metrics.
package parkmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/parksync/internal/parking"
)

// StatsSource is anything that can snapshot parking statistics.
// *parking.Service implements it.
type StatsSource interface {
	Stats() parking.Stats
}

// Collector is a prometheus.Collector reading a StatsSource on every scrape.
type Collector struct {
	src StatsSource

	parks       *prometheus.Desc
	again       *prometheus.Desc
	timedOut    *prometheus.Desc
	interrupted *prometheus.Desc
	unparks     *prometheus.Desc
	handoffs    *prometheus.Desc
	waiting     *prometheus.Desc
}

// New returns a Collector for src. Metric names are prefixed with
// namespace_parking_.
func New(src StatsSource, namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "parking", name), help, nil, nil)
	}
	return &Collector{
		src:         src,
		parks:       desc("parks_total", "Goroutines queued and put to sleep."),
		again:       desc("again_total", "Park calls rejected because the word changed."),
		timedOut:    desc("timeouts_total", "Parks that ended by timeout."),
		interrupted: desc("interrupts_total", "Parks that ended by context cancellation."),
		unparks:     desc("unparks_total", "Waiters woken by Unpark or UnparkAll."),
		handoffs:    desc("handoffs_total", "Unlocks that handed ownership to a woken waiter."),
		waiting:     desc("waiting", "Goroutines currently parked."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.parks
	ch <- c.again
	ch <- c.timedOut
	ch <- c.interrupted
	ch <- c.unparks
	ch <- c.handoffs
	ch <- c.waiting
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.parks, st.Parks)
	counter(c.again, st.Again)
	counter(c.timedOut, st.TimedOut)
	counter(c.interrupted, st.Interrupted)
	counter(c.unparks, st.Unparks)
	counter(c.handoffs, st.Handoffs)
	ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(st.Waiting))
}
