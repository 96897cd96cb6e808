package schemareg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schemareg"

// Call outcomes recorded by Metrics.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus metrics of a Registry.
type Metrics struct {
	Validators      *prometheus.GaugeVec
	Validations     *prometheus.CounterVec
	CompileFailures *prometheus.CounterVec
}

// NewMetrics creates the registry metrics and registers them with reg. A nil
// reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validators: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validators",
			Help:      "Number of compiled validators currently registered",
		}, []string{"engine"}),
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of validator calls by outcome",
		}, []string{"engine", "outcome"}),
		CompileFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_failures_total",
			Help:      "Total number of validator registrations rejected by the engine",
		}, []string{"engine"}),
	}
}

func (m *Metrics) setValidators(e Engine, n int) {
	if m == nil {
		return
	}
	m.Validators.WithLabelValues(string(e)).Set(float64(n))
}

func (m *Metrics) observeCall(e Engine, outcome string) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(string(e), outcome).Inc()
}

func (m *Metrics) observeCompileFailure(e Engine) {
	if m == nil {
		return
	}
	m.CompileFailures.WithLabelValues(string(e)).Inc()
}
