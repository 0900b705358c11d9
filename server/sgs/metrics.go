package sgs

import (
	"context"
	"errors"
	"net/http"

	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a Service in a registry of their
// own. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	generated *prometheus.CounterVec
	repairs   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	words     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them in a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentgen_sentences_generated_total",
				Help: "Number of sentences generated",
			},
			[]string{"grammar"},
		),
		repairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentgen_repairs_total",
				Help: "Number of times forced terminal repair was invoked",
			},
			[]string{"grammar"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentgen_derivation_errors_total",
				Help: "Number of batches abandoned because of a derivation error",
			},
			[]string{"grammar", "kind"},
		),
		words: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentgen_sentence_words",
				Help:    "Number of words in generated sentences",
				Buckets: prometheus.LinearBuckets(2, 3, 10),
			},
		),
	}

	m.reg.MustRegister(m.generated, m.repairs, m.failures, m.words)
	return m
}

// Registry returns the registry that holds the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler returns a handler that serves the metrics in the Prometheus text
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) observeSentence(grammar string, s derive.Sentence) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(grammar).Inc()
	m.repairs.WithLabelValues(grammar).Add(float64(s.Stats.Repairs))
	m.words.Observe(float64(s.Len()))
}

func (m *Metrics) observeError(grammar string, err error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(grammar, errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, sgerr.ErrRepairNonTermination):
		return "repair"
	case errors.Is(err, sgerr.ErrConfiguration):
		return "configuration"
	case errors.Is(err, sgerr.ErrTooManyAttempts):
		return "attempts"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
