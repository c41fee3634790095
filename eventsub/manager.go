package eventsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SubscriptionAPI is the subset of the REST client the Manager needs.
// *twitch.EventSubService satisfies it.
type SubscriptionAPI interface {
	Create(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
	Delete(ctx context.Context, id string) error
}

// notFoundError lets the Manager treat delete-of-missing as success without
// importing the REST package. *twitch.APIError implements it.
type notFoundError interface {
	IsNotFound() bool
}

// Manager creates and tears down webhook subscriptions, wiring each one to
// the Receiver's event stream.
type Manager struct {
	api         SubscriptionAPI
	receiver    *Receiver
	callbackURL string
}

// NewManager creates a Manager. The callback URL must be the public HTTPS
// endpoint where the Receiver is mounted; Twitch delivers the verification
// challenge there before enabling a subscription.
func NewManager(api SubscriptionAPI, receiver *Receiver, callbackURL string) *Manager {
	return &Manager{
		api:         api,
		receiver:    receiver,
		callbackURL: callbackURL,
	}
}

// Subscribe creates a subscription with webhook transport and returns its
// registration. The subscription starts in verification-pending status; it
// flips to enabled once the Receiver answers the challenge.
func (m *Manager) Subscribe(ctx context.Context, subType, version string, condition map[string]string) (*Registration, error) {
	sub, err := m.api.Create(ctx, SubscriptionRequest{
		Type:      subType,
		Version:   version,
		Condition: condition,
		Transport: Transport{
			Method:   "webhook",
			Callback: m.callbackURL,
			Secret:   m.receiver.secret,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s subscription: %w", subType, err)
	}

	slog.Info("Created EventSub subscription", "subscription_id", sub.ID, "type", subType, "status", sub.Status)
	return m.receiver.Register(*sub), nil
}

// Unsubscribe deletes the registration's subscription server-side. Terminal:
// the registration's stream will see no further events (anything already in
// flight still gets delivered). Deleting an already-gone subscription is
// treated as success.
func (m *Manager) Unsubscribe(ctx context.Context, reg *Registration) error {
	id := reg.ID()
	if err := m.api.Delete(ctx, id); err != nil {
		var nf notFoundError
		if errors.As(err, &nf) && nf.IsNotFound() {
			slog.Info("EventSub subscription already deleted", "subscription_id", id)
			return nil
		}
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}

	slog.Info("Deleted EventSub subscription", "subscription_id", id)
	return nil
}
