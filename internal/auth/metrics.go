package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ptmaster",
		Subsystem: "auth",
		Name:      "session_resolutions_total",
		Help:      "Session resolution outcomes per request.",
	}, []string{"outcome"})

	impersonationLayered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ptmaster",
		Subsystem: "auth",
		Name:      "impersonation_grants_total",
		Help:      "Impersonation grants presented with a session, by outcome.",
	}, []string{"outcome"})

	sessionRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ptmaster",
		Subsystem: "auth",
		Name:      "session_refreshes_total",
		Help:      "Sliding session re-issues.",
	})
)

const (
	outcomeAnonymous   = "anonymous"
	outcomeInvalid     = "invalid"
	outcomeInvalidated = "invalidated"
	outcomeOK          = "ok"
	outcomeStale       = "stale"
	outcomeIgnored     = "ignored"
	outcomeActive      = "active"
)
