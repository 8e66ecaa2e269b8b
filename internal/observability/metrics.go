package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters describing the plans this process produced.
type Metrics struct {
	plans    *prometheus.CounterVec
	jobs     *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ci_prep_plans_total",
		Help: "Total plans emitted by trigger kind.",
	}, []string{"trigger"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ci_prep_jobs_planned_total",
		Help: "Total planned jobs by family and runner.",
	}, []string{"family", "runner"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ci_prep_failures_total",
		Help: "Total planning failures by type.",
	}, []string{"type"})

	plans = registerCounterVec(registerer, plans)
	jobs = registerCounterVec(registerer, jobs)
	failures = registerCounterVec(registerer, failures)

	return &Metrics{
		plans:    plans,
		jobs:     jobs,
		failures: failures,
	}
}

// WriteTextfile writes the gathered metrics in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, gatherer)
}

func (m *Metrics) IncPlan(trigger string) {
	if m == nil || m.plans == nil {
		return
	}
	if trigger == "" {
		trigger = "unknown"
	}
	m.plans.WithLabelValues(trigger).Inc()
}

func (m *Metrics) IncJob(family, runner string) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.WithLabelValues(family, runner).Inc()
}

func (m *Metrics) IncFailure(kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func registerCounterVec(registerer prometheus.Registerer, counter *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}
