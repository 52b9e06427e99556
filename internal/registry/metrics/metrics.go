package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Registrations by domain (property, vehicle, company)
	RegistrationsTotal *prometheus.CounterVec

	// Authorization denials by module and operation
	AuthzDenied *prometheus.CounterVec

	// Duplicate-transaction rejections by domain and side
	DuplicatesRejected *prometheus.CounterVec

	// Identity-lock contention surfaced as retryable conflicts
	ConcurrencyConflicts prometheus.Counter

	// Audit entries written, and audit write failures, by entity kind
	AuditEntries  *prometheus.CounterVec
	AuditFailures *prometheus.CounterVec

	// Cancellations recorded by domain
	CancellationsTotal *prometheus.CounterVec

	// End-to-end registration latency by domain
	RegisterLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all registry metrics registered on the
// default registerer.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_registrations_total",
			Help: "Total accepted registrations by domain",
		}, []string{"domain"}),

		AuthzDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_authz_denied_total",
			Help: "Total authorization denials by module and operation",
		}, []string{"module", "operation"}),

		DuplicatesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_duplicates_rejected_total",
			Help: "Total writes rejected by the active-transaction duplicate check",
		}, []string{"domain", "side"}),

		ConcurrencyConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tasjeel_registry_concurrency_conflicts_total",
			Help: "Total writes rejected because the identity lock was held",
		}),

		AuditEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_audit_entries_total",
			Help: "Total audit entries persisted by entity kind",
		}, []string{"kind"}),

		AuditFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_audit_failures_total",
			Help: "Total audit change-set writes that failed by entity kind",
		}, []string{"kind"}),

		CancellationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tasjeel_registry_cancellations_total",
			Help: "Total transaction cancellations by domain",
		}, []string{"domain"}),

		RegisterLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasjeel_registry_register_duration_seconds",
			Help:    "Duration of registration requests including the duplicate check",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"domain"}),
	}
}

// IncRegistration records one accepted registration.
func (m *Metrics) IncRegistration(domain string) {
	if m != nil {
		m.RegistrationsTotal.WithLabelValues(domain).Inc()
	}
}

// IncAuthzDenied records one authorization denial.
func (m *Metrics) IncAuthzDenied(module, operation string) {
	if m != nil {
		m.AuthzDenied.WithLabelValues(module, operation).Inc()
	}
}

// IncDuplicateRejected records one duplicate-transaction rejection.
func (m *Metrics) IncDuplicateRejected(domain, side string) {
	if m != nil {
		m.DuplicatesRejected.WithLabelValues(domain, side).Inc()
	}
}

// IncConcurrencyConflict records one identity-lock contention rejection.
func (m *Metrics) IncConcurrencyConflict() {
	if m != nil {
		m.ConcurrencyConflicts.Inc()
	}
}

// AddAuditEntries records persisted audit entries for one entity kind.
func (m *Metrics) AddAuditEntries(kind string, n int) {
	if m != nil && n > 0 {
		m.AuditEntries.WithLabelValues(kind).Add(float64(n))
	}
}

// IncAuditFailure records one failed audit change-set write.
func (m *Metrics) IncAuditFailure(kind string) {
	if m != nil {
		m.AuditFailures.WithLabelValues(kind).Inc()
	}
}

// IncCancellation records one cancellation.
func (m *Metrics) IncCancellation(domain string) {
	if m != nil {
		m.CancellationsTotal.WithLabelValues(domain).Inc()
	}
}

// ObserveRegisterLatency records the duration of one registration request.
func (m *Metrics) ObserveRegisterLatency(domain string, d time.Duration) {
	if m != nil {
		m.RegisterLatency.WithLabelValues(domain).Observe(d.Seconds())
	}
}
