package eventsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MindfulMinun/twitch-api/internal/metrics"
)

// Webhook transport headers, exactly as Twitch sends them.
const (
	HeaderMessageID        = "Twitch-Eventsub-Message-Id"
	HeaderMessageType      = "Twitch-Eventsub-Message-Type"
	HeaderMessageTimestamp = "Twitch-Eventsub-Message-Timestamp"
	HeaderMessageSignature = "Twitch-Eventsub-Message-Signature"
)

// Message types of the EventSub webhook protocol.
const (
	MessageTypeNotification = "notification"
	MessageTypeVerification = "webhook_callback_verification"
	MessageTypeRevocation   = "revocation"
)

// DefaultMaxAge is the freshness window: messages whose declared timestamp is
// this old or older are rejected.
const DefaultMaxAge = 10 * time.Minute

// ErrNoSecret is returned by NewReceiver when no signing secret is configured.
// A receiver without a secret cannot authenticate anything, so this is a
// startup error, not a per-request condition.
var ErrNoSecret = errors.New("eventsub: webhook secret must not be empty")

// Outcome classifies how the receiver handled an inbound request.
type Outcome int

const (
	// OutcomeNotRecognized means the request is missing EventSub transport
	// headers or carries an unknown message type. The caller decides what to
	// do with it; ServeHTTP responds 404.
	OutcomeNotRecognized Outcome = iota
	// OutcomeRejected means the message failed freshness, signature, or
	// payload validation. Respond with Result.Status and do not retry.
	OutcomeRejected
	// OutcomeAcknowledged means the message was processed (or is a known
	// duplicate). Respond with Result.Status and Result.Body.
	OutcomeAcknowledged
)

// Rejection reasons reported in Result.Reason.
const (
	ReasonStale        = "stale"
	ReasonBadSignature = "bad_signature"
	ReasonBadPayload   = "bad_payload"
)

// Result tells the caller how to respond to a webhook request.
type Result struct {
	Outcome     Outcome
	Status      int
	Body        string
	ContentType string
	Reason      string // set on OutcomeRejected
}

// Receiver ingests EventSub webhook requests: it authenticates them against
// the shared secret, answers verification challenges, drops replays and stale
// messages, and appends validated notifications to a broadcast log consumed
// through Registrations. Safe for concurrent use by in-flight requests.
type Receiver struct {
	secret string
	maxAge time.Duration
	clock  clockwork.Clock
	guard  *replayGuard
	queue  *queue
}

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// WithClock overrides the clock used for freshness and replay expiry.
func WithClock(clock clockwork.Clock) ReceiverOption {
	return func(r *Receiver) { r.clock = clock }
}

// WithMaxAge overrides the freshness window.
func WithMaxAge(maxAge time.Duration) ReceiverOption {
	return func(r *Receiver) { r.maxAge = maxAge }
}

// NewReceiver creates a Receiver signing-verified with the given secret.
// Returns ErrNoSecret when the secret is empty.
func NewReceiver(secret string, opts ...ReceiverOption) (*Receiver, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	r := &Receiver{
		secret: secret,
		maxAge: DefaultMaxAge,
		clock:  clockwork.NewRealClock(),
		queue:  newQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.guard = newReplayGuard(r.clock, r.maxAge)

	return r, nil
}

// notificationPayload is the JSON body shared by all three message types.
// Challenge is set on verification messages, Event on notifications.
type notificationPayload struct {
	Subscription Subscription    `json:"subscription"`
	Challenge    string          `json:"challenge"`
	Event        json.RawMessage `json:"event"`
}

// Handle runs an inbound request through the ingestion pipeline and reports
// how to respond. The request body is consumed.
func (r *Receiver) Handle(req *http.Request) Result {
	messageID := req.Header.Get(HeaderMessageID)
	messageType := req.Header.Get(HeaderMessageType)
	timestamp := req.Header.Get(HeaderMessageTimestamp)
	signature := req.Header.Get(HeaderMessageSignature)

	if messageID == "" || messageType == "" || timestamp == "" || signature == "" {
		return Result{Outcome: OutcomeNotRecognized}
	}

	// The raw bytes are the authenticated message; read them exactly once
	// and verify before any parsing.
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return r.reject(messageType, http.StatusBadRequest, ReasonBadPayload, fmt.Sprintf("failed to read body: %v", err))
	}

	if r.guard.seen(messageID) {
		slog.Debug("Duplicate EventSub message acknowledged", "message_id", messageID, "type", messageType)
		metrics.WebhookDuplicatesTotal.Inc()
		metrics.WebhookMessagesTotal.WithLabelValues(messageType, "duplicate").Inc()
		return Result{Outcome: OutcomeAcknowledged, Status: http.StatusNoContent}
	}

	if !r.isFresh(timestamp) {
		return r.reject(messageType, http.StatusForbidden, ReasonStale, "message timestamp outside freshness window")
	}

	if !VerifySignature(r.secret, messageID, timestamp, body, signature) {
		return r.reject(messageType, http.StatusForbidden, ReasonBadSignature, "signature mismatch")
	}

	// Authenticated; structural parsing is safe now.
	var payload notificationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return r.reject(messageType, http.StatusBadRequest, ReasonBadPayload, fmt.Sprintf("malformed body: %v", err))
	}

	switch messageType {
	case MessageTypeVerification:
		slog.Info("EventSub webhook verification challenge",
			"subscription_id", payload.Subscription.ID,
			"subscription_type", payload.Subscription.Type,
		)
		metrics.WebhookMessagesTotal.WithLabelValues(messageType, "acknowledged").Inc()
		return Result{
			Outcome:     OutcomeAcknowledged,
			Status:      http.StatusOK,
			Body:        payload.Challenge,
			ContentType: "text/plain",
		}

	case MessageTypeNotification:
		r.queue.push(item{
			subscription: payload.Subscription,
			subType:      payload.Subscription.Type,
			event:        payload.Event,
		})
		r.guard.mark(messageID)
		metrics.NotificationsEnqueuedTotal.Inc()
		metrics.WebhookMessagesTotal.WithLabelValues(messageType, "acknowledged").Inc()
		return Result{Outcome: OutcomeAcknowledged, Status: http.StatusOK}

	case MessageTypeRevocation:
		slog.Info("EventSub subscription revoked",
			"subscription_id", payload.Subscription.ID,
			"subscription_type", payload.Subscription.Type,
			"status", payload.Subscription.Status,
		)
		// No event payload, but listeners still want the status change.
		r.queue.push(item{
			subscription: payload.Subscription,
			subType:      payload.Subscription.Type,
		})
		r.guard.mark(messageID)
		metrics.WebhookMessagesTotal.WithLabelValues(messageType, "acknowledged").Inc()
		return Result{Outcome: OutcomeAcknowledged, Status: http.StatusNoContent}
	}

	return Result{Outcome: OutcomeNotRecognized}
}

// isFresh accepts timestamps younger than the freshness window. Unparseable
// timestamps are treated as stale. Future-skewed timestamps pass; only the
// past is bounded.
func (r *Receiver) isFresh(timestamp string) bool {
	declared, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return false
	}
	return r.clock.Now().Sub(declared) < r.maxAge
}

func (r *Receiver) reject(messageType string, status int, reason, detail string) Result {
	slog.Warn("Rejected EventSub message", "reason", reason, "detail", detail)
	metrics.WebhookRejectionsTotal.WithLabelValues(reason).Inc()
	metrics.WebhookMessagesTotal.WithLabelValues(messageType, "rejected").Inc()
	return Result{Outcome: OutcomeRejected, Status: status, Reason: reason}
}

// ServeHTTP adapts Handle to the standard library handler contract, so a
// Receiver can be mounted directly on a mux or wrapped by a framework.
// NotRecognized requests get a 404.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	result := r.Handle(req)

	if result.Outcome == OutcomeNotRecognized {
		http.NotFound(w, req)
		return
	}

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(result.Status)
	if result.Body != "" {
		_, _ = io.WriteString(w, result.Body)
	}
}

// Register attaches a registration for the given subscription snapshot.
// Events delivered for the subscription id become observable through the
// returned Registration's stream.
func (r *Receiver) Register(sub Subscription) *Registration {
	return &Registration{receiver: r, sub: sub}
}

// Close permanently closes the notification log. Every blocked event stream
// observes end-of-stream; later notifications are dropped.
func (r *Receiver) Close() {
	r.queue.close()
}
