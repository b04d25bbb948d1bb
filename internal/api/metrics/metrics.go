// Package metrics defines and registers all custom Prometheus metrics for the
// user API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "userapi"

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created" or "rejected"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// ProfileUpdatesTotal counts profile self-updates.
// Label:
//   - result: "updated", "username_taken" or "email_taken"
var ProfileUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_updates_total",
		Help:      "Total number of profile self-updates, by result.",
	},
	[]string{"result"},
)

// UsersDeletedTotal counts records removed through the admin endpoint.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of user records deleted by administrators.",
	},
)

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts tokens handed out.
// Label:
//   - grant: "password" (obtain pair) or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of token responses, by grant type.",
	},
	[]string{"grant"},
)

// TokenFailuresTotal counts rejected token requests.
// Label:
//   - grant: "password" or "refresh"
var TokenFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_failures_total",
		Help:      "Total number of rejected token requests, by grant type.",
	},
	[]string{"grant"},
)
