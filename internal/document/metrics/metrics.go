package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the document service.
type Metrics struct {
	RegistrationsTotal   *prometheus.CounterVec
	VerificationsTotal   *prometheus.CounterVec
	IdentifierCollisions prometheus.Counter
}

// New creates and registers all document service metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docseal_registrations_total",
			Help: "Document registration attempts by outcome (unique, duplicate, rejected)",
		}, []string{"outcome"}),
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docseal_verifications_total",
			Help: "Document verification lookups by result (verified, unverified)",
		}, []string{"result"}),
		IdentifierCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docseal_identifier_collisions_total",
			Help: "Generated identifiers that were already taken and had to be regenerated",
		}),
	}
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordVerification(verified bool) {
	if m == nil {
		return
	}
	result := "unverified"
	if verified {
		result = "verified"
	}
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordIdentifierCollision() {
	if m == nil {
		return
	}
	m.IdentifierCollisions.Inc()
}
