// Package metrics defines the custom Prometheus metrics of the user auth API.
// It is the single source of truth for metric names, labels and help strings.
//
// Call New once at startup with the registry that also backs /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_auth"

// Metrics groups the counters recorded by handlers and middleware.
type Metrics struct {
	// LoginAttempts counts POST /auth/token outcomes.
	// Label:
	//   - result: "success", "invalid_credentials" or "error"
	LoginAttempts *prometheus.CounterVec

	// TokensIssued counts minted tokens.
	// Label:
	//   - kind: "login" or "refresh"
	TokensIssued *prometheus.CounterVec

	// TokensRevoked counts successful logouts.
	TokensRevoked prometheus.Counter

	// Registrations counts POST /users outcomes.
	// Label:
	//   - result: "created", "duplicate", "invalid" or "error"
	Registrations *prometheus.CounterVec

	// AccessDenied counts requests stopped by the access control chain.
	// Label:
	//   - reason: "missing_token", "invalid_token", "expired", "revoked" or "forbidden"
	AccessDenied *prometheus.CounterVec
}

// New creates and registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		TokensIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_issued_total",
				Help:      "Total number of bearer tokens issued, by kind.",
			},
			[]string{"kind"},
		),
		TokensRevoked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_revoked_total",
				Help:      "Total number of tokens revoked through logout.",
			},
		),
		Registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration attempts, by result.",
			},
			[]string{"result"},
		),
		AccessDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "access_denied_total",
				Help:      "Total number of requests rejected by access control, by reason.",
			},
			[]string{"reason"},
		),
	}
}
