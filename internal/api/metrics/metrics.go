// Package metrics defines and registers the custom Prometheus metrics of the
// accounts API. It is the single source of truth for metric names, labels and
// help strings. HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scm"

// Login results.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid_credentials"
	LoginDisabled  = "disabled"
	LoginThrottled = "throttled"
	LoginError     = "error"
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: success, invalid_credentials, disabled, throttled or error
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts refresh-token exchanges.
// Label:
//   - result: "success" or "rejected"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of refresh-token exchanges, by result.",
	},
	[]string{"result"},
)

// UserMutationsTotal counts successful user writes.
// Label:
//   - op: "create", "update" or "delete"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of user accounts created, updated or deleted.",
	},
	[]string{"op"},
)

// RoleMutationsTotal counts successful role writes.
// Label:
//   - op: "create", "update" or "delete"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of roles created, updated or deleted.",
	},
	[]string{"op"},
)
