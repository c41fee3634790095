// Package metrics defines the library's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook ingestion metrics
var (
	// WebhookMessagesTotal tracks inbound webhook messages by type and outcome
	WebhookMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventsub_webhook_messages_total",
			Help: "Inbound EventSub webhook messages by message type and handling outcome",
		},
		[]string{"type", "outcome"},
	)

	// WebhookRejectionsTotal tracks rejected messages by reason (stale, bad_signature, bad_payload)
	WebhookRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventsub_webhook_rejections_total",
			Help: "Rejected EventSub webhook messages by reason",
		},
		[]string{"reason"},
	)

	// WebhookDuplicatesTotal tracks re-delivered messages acknowledged without reprocessing
	WebhookDuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventsub_webhook_duplicates_total",
			Help: "Duplicate EventSub webhook messages suppressed by the replay guard",
		},
	)

	// NotificationsEnqueuedTotal tracks notifications appended to the broadcast log
	NotificationsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventsub_notifications_enqueued_total",
			Help: "Validated notifications appended to the notification log",
		},
	)

	// ActiveRegistrations tracks currently attached event streams
	ActiveRegistrations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventsub_active_registrations",
			Help: "Number of registrations with an attached event stream",
		},
	)
)
