package eventsub

import "time"

// Subscription statuses reported by Twitch. The set is server-driven; the
// library never invents transitions locally.
const (
	StatusEnabled                      = "enabled"
	StatusVerificationPending          = "webhook_callback_verification_pending"
	StatusVerificationFailed           = "webhook_callback_verification_failed"
	StatusNotificationFailuresExceeded = "notification_failures_exceeded"
	StatusAuthorizationRevoked         = "authorization_revoked"
	StatusUserRemoved                  = "user_removed"
	StatusVersionRemoved               = "version_removed"
)

// Transport describes how notifications for a subscription are delivered.
type Transport struct {
	Method   string `json:"method"`
	Callback string `json:"callback,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// Subscription is the server-side record of one EventSub subscription. ID is
// assigned by Twitch and never changes; every other field is refreshed from
// subscription snapshots embedded in notifications.
type Subscription struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport Transport         `json:"transport"`
	CreatedAt time.Time         `json:"created_at"`
	Cost      int               `json:"cost"`
}

// Terminal reports whether the subscription status is one Twitch never
// recovers from. Revoked or removed subscriptions must be recreated.
func (s Subscription) Terminal() bool {
	switch s.Status {
	case StatusVerificationFailed,
		StatusNotificationFailuresExceeded,
		StatusAuthorizationRevoked,
		StatusUserRemoved,
		StatusVersionRemoved:
		return true
	}
	return false
}

// SubscriptionRequest is the payload for creating a subscription.
type SubscriptionRequest struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport Transport         `json:"transport"`
}
