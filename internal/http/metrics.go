package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_success_total",
		Help: "Successful logins.",
	})
	loginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_failure_total",
		Help: "Rejected logins (unknown email or wrong password).",
	})
	passwordResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_reset_requested_total",
		Help: "Password reset tokens issued.",
	})
)
