package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeError   = "error"
)

var (
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_auth_attempts_total",
			Help: "Registration and login attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	principalResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_principal_resolutions_total",
			Help: "Requests resolved by the identity resolver, by strategy",
		},
		[]string{"strategy"},
	)

	auditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_audit_write_failures_total",
			Help: "Audit entries that could not be persisted",
		},
	)

	eventPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_event_publish_failures_total",
			Help: "Auth events that could not be published",
		},
		[]string{"event_type"},
	)
)
