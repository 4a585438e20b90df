package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "login_success_total",
		Help:      "Successful logins.",
	})
	loginFailureTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "login_failure_total",
		Help:      "Failed logins, including locked accounts.",
	})
	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "refresh_rotations_total",
		Help:      "Successful refresh token rotations.",
	})
	reuseDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "token_reuse_detected_total",
		Help:      "Refresh token replays that triggered family revocation.",
	})
	lockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "account_lockouts_total",
		Help:      "Login attempts rejected because of an active lockout.",
	})
)
