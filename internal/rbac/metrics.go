package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ptmaster",
	Subsystem: "rbac",
	Name:      "gate_decisions_total",
	Help:      "Edge route gate decisions.",
}, []string{"decision"})

const (
	decisionPublic        = "public"
	decisionAllowed       = "allowed"
	decisionUnauth        = "unauthenticated"
	decisionInvalidated   = "invalidated"
	decisionForbidden     = "forbidden"
	decisionPendingShop   = "pending_shop"
	decisionImpersonating = "impersonation_control"
)
