package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the reminder engine.
type Metrics struct {
	Dispatches   *prometheus.CounterVec
	PassDuration prometheus.Histogram
	DueSchedules prometheus.Gauge
}

// NewMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_dispatch_total",
			Help: "Reminder dispatch attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		PassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_scheduler_pass_duration_seconds",
			Help:    "Duration of one pass over due reminder schedules",
			Buckets: prometheus.DefBuckets,
		}),
		DueSchedules: f.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_due_schedules",
			Help: "Due schedules picked up by the last pass",
		}),
	}
}

func (m *Metrics) observeDispatch(channel, outcome string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) observePass(d time.Duration, due int) {
	if m == nil {
		return
	}
	m.PassDuration.Observe(d.Seconds())
	m.DueSchedules.Set(float64(due))
}
