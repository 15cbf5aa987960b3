package payouts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the payout job collectors.
type Metrics struct {
	Outcomes     *prometheus.CounterVec
	Failures     prometheus.Counter
	Credited     prometheus.Counter
	RunDuration  prometheus.Histogram
	LastRunItems prometheus.Gauge
}

// NewMetrics registers the payout collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coinease",
				Name:      "payout_outcomes_total",
				Help:      "Payout evaluations by outcome",
			},
			[]string{"outcome"},
		),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "coinease",
			Name:      "payout_failures_total",
			Help:      "Payout evaluations that returned an error",
		}),
		Credited: f.NewCounter(prometheus.CounterOpts{
			Namespace: "coinease",
			Name:      "payout_credited_total",
			Help:      "Amount credited to balances by payouts",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coinease",
			Name:      "payout_run_duration_seconds",
			Help:      "Duration of a full payout run",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRunItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "coinease",
			Name:      "payout_last_run_investments",
			Help:      "Investments evaluated by the last run",
		}),
	}
}
