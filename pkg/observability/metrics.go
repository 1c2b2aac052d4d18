package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/stepform/pkg/domain"
)

const namespace = "stepform"

// Metrics holds the collectors fed by form lifecycle hooks.
// One Metrics value serves every form of a process.
type Metrics struct {
	StepVisits  *prometheus.CounterVec
	StepExits   *prometheus.CounterVec
	Edits       *prometheus.CounterVec
	Propagation *prometheus.HistogramVec
	Phases      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_visits_total",
			Help:      "Total number of step entries.",
		}, []string{"form", "step"}),
		StepExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_exits_total",
			Help:      "Total number of step exits by resulting status.",
		}, []string{"form", "step", "status"}),
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Total number of value edits by outcome.",
		}, []string{"form", "outcome"}),
		Propagation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "propagation_duration_seconds",
			Help:      "Duration of dependency propagation passes.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"form", "kind"}),
		Phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_changes_total",
			Help:      "Total number of form phase transitions by target phase.",
		}, []string{"form", "phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.StepVisits, m.StepExits, m.Edits, m.Propagation, m.Phases)
	}
	return m
}

// Hooks returns lifecycle callbacks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.Form, e.StepID).Inc()
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.StepExits.WithLabelValues(e.Form, e.StepID, string(e.Status)).Inc()
		},
		OnEdit: func(_ context.Context, e *domain.EditEvent) {
			outcome := "accepted"
			if e.Err != nil {
				outcome = "rejected"
			}
			m.Edits.WithLabelValues(e.Form, outcome).Inc()
		},
		OnPropagate: func(_ context.Context, e *domain.PassEvent) {
			kind := "incremental"
			if e.Full {
				kind = "full"
			}
			m.Propagation.WithLabelValues(e.Form, kind).Observe(e.Duration.Seconds())
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			m.Phases.WithLabelValues(e.Form, string(e.To)).Inc()
		},
	}
}
