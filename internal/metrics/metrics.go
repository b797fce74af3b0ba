// Package metrics exposes Prometheus collectors for the notification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts outbound messages by calendar method and
	// delivery status.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icalsender_messages_total",
		Help: "Outbound calendar messages by method (REQUEST/CANCEL) and status (sent/failed).",
	}, []string{"method", "status"})

	// TriggersTotal counts processed lifecycle triggers by kind and outcome.
	TriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icalsender_triggers_total",
		Help: "Processed lifecycle triggers by kind and outcome (handled/skipped/error).",
	}, []string{"kind", "outcome"})
)
