// Package metrics defines the Prometheus metrics of the staff terminal
// service. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staff_terminal"

// UsernameSubmissionsTotal counts username submissions.
// Label:
//   - result: "resolved", or the error kind (e.g. "unknown_username")
var UsernameSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "username_submissions_total",
		Help:      "Total number of username submissions, by result.",
	},
	[]string{"result"},
)

// PinEvaluationsTotal counts four-digit PIN evaluations.
// Label:
//   - result: "authenticated", "invalid_pin" or "session_unavailable"
var PinEvaluationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pin_evaluations_total",
		Help:      "Total number of PIN evaluations, by result.",
	},
	[]string{"result"},
)

// ActiveAttempts tracks login attempts currently held in memory.
var ActiveAttempts = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_login_attempts",
		Help:      "Number of login attempts in progress.",
	},
)

// SignOutsTotal counts explicit terminal sign-outs.
var SignOutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_outs_total",
		Help:      "Total number of terminal sign-outs.",
	},
)
