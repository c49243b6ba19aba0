package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Work item outcomes reported by the items counter.
const (
	outcomeParsed    = "parsed"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeRobots    = "robots"
	outcomeFiltered  = "filtered"
)

// Metrics are the Prometheus collectors of a Spider. A nil *Metrics
// records nothing.
type Metrics struct {
	Items         *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	InFlight      prometheus.Gauge
}

// NewMetrics creates the crawler collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seoscan",
				Subsystem: "crawler",
				Name:      "items_total",
				Help:      "Work items processed by the crawler, by outcome.",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "seoscan",
				Subsystem: "crawler",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of page fetches including retries.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "seoscan",
				Subsystem: "crawler",
				Name:      "fetches_in_flight",
				Help:      "Page fetches currently in flight.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Items, m.FetchDuration, m.InFlight)
	}
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(outcome).Inc()
}

func (m *Metrics) fetchStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) fetchFinished(start time.Time) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.FetchDuration.Observe(time.Since(start).Seconds())
}
