// Package telemetry exposes Prometheus metrics for running simulations.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/bubble-chamber/internal/chamber"
)

const namespace = "chamber"

// Metrics collects counters fed by simulation steps. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ticks     prometheus.Counter
	splits    prometheus.Counter
	children  prometheus.Counter
	expired   prometheus.Counter
	harvested prometheus.Counter
	alive     prometheus.Gauge
	runs      *prometheus.CounterVec
	sessions  prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Simulation steps executed.",
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "splits_total",
			Help: "Particles that split into children.",
		}),
		children: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "children_total",
			Help: "Particles created by splits.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "expired_total",
			Help: "Single-unit particles removed by expiry.",
		}),
		harvested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trajectories_total",
			Help: "Trajectories moved into the collector.",
		}),
		alive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "particles_alive",
			Help: "Live particles after the most recent step.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Finished runs by scenario.",
		}, []string{"scenario"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ssh_sessions",
			Help: "Open SSH viewer sessions.",
		}),
	}
	reg.MustRegister(m.ticks, m.splits, m.children, m.expired, m.harvested, m.alive, m.runs, m.sessions)
	return m
}

// Observe records one step.
func (m *Metrics) Observe(r chamber.StepResult) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.splits.Add(float64(len(r.Splits)))
	m.children.Add(float64(r.Created))
	m.expired.Add(float64(r.Expired))
	m.harvested.Add(float64(r.Harvested))
	m.alive.Set(float64(r.Alive))
}

// RunFinished counts a finished run of scenario.
func (m *Metrics) RunFinished(scenario string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(scenario).Inc()
}

// SessionStarted marks an SSH viewer session as open.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// SessionEnded marks an SSH viewer session as closed.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
