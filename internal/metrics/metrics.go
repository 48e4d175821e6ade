// Package metrics exposes pipeline counters on the serve path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// Metrics holds the prometheus collectors for scheduled runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	BusinessesFound prometheus.Counter
	LeadsTotal      prometheus.Gauge
	DetectErrors    prometheus.Counter
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadtap_runs_total",
			Help: "Pipeline runs by terminal state.",
		}, []string{"state"}),
		BusinessesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadtap_businesses_found_total",
			Help: "Businesses returned by spatial searches.",
		}),
		LeadsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadtap_leads_total",
			Help: "Size of the accumulated lead collection.",
		}),
		DetectErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadtap_detect_errors_total",
			Help: "Website checks that degraded to an error result.",
		}),
	}
}

// ObserveRun records one completed pipeline run.
func (m *Metrics) ObserveRun(res *model.RunResult) {
	m.RunsTotal.WithLabelValues(string(res.State)).Inc()
	m.BusinessesFound.Add(float64(res.BusinessesFound))
	m.LeadsTotal.Set(float64(res.TotalLeads))
	m.DetectErrors.Add(float64(res.DetectErrors))
}
