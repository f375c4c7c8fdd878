package numerator

import (
	"github.com/prometheus/client_golang/prometheus"

	corenumerator "billing/internal/core/numerator"
)

// Allocation outcomes reported in numerator_allocations_total.
const (
	OutcomeGenerated = "generated"
	OutcomeExplicit  = "explicit"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// Metrics holds Prometheus collectors for number allocation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	allocations *prometheus.CounterVec
	collisions  *prometheus.CounterVec
	malformed   *prometheus.CounterVec
	attempts    *prometheus.HistogramVec
}

// NewMetrics creates allocation collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numerator_allocations_total",
				Help: "Document number allocations by outcome.",
			},
			[]string{"document_type", "outcome"},
		),
		collisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numerator_collisions_total",
				Help: "Candidate numbers found already taken.",
			},
			[]string{"document_type"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numerator_malformed_numbers_total",
				Help: "Stored numbers under the current prefix that could not be parsed.",
			},
			[]string{"document_type"},
		),
		attempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "numerator_attempts",
				Help:    "Candidates tried per successful allocation.",
				Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
			},
			[]string{"document_type"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.allocations, m.collisions, m.malformed, m.attempts)
	}
	return m
}

func (m *Metrics) allocated(docType corenumerator.DocumentType, outcome string, attempts int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(string(docType), outcome).Inc()
	if attempts > 0 {
		m.attempts.WithLabelValues(string(docType)).Observe(float64(attempts))
	}
}

func (m *Metrics) collision(docType corenumerator.DocumentType) {
	if m == nil {
		return
	}
	m.collisions.WithLabelValues(string(docType)).Inc()
}

func (m *Metrics) malformedNumber(docType corenumerator.DocumentType) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(string(docType)).Inc()
}
