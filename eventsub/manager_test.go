package eventsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriptionAPI records REST calls without talking to Twitch.
type fakeSubscriptionAPI struct {
	created   []SubscriptionRequest
	deleted   []string
	createErr error
	deleteErr error
}

func (f *fakeSubscriptionAPI) Create(_ context.Context, req SubscriptionRequest) (*Subscription, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &Subscription{
		ID:        "sub-created",
		Status:    StatusVerificationPending,
		Type:      req.Type,
		Version:   req.Version,
		Condition: req.Condition,
		Transport: Transport{Method: req.Transport.Method, Callback: req.Transport.Callback},
	}, nil
}

func (f *fakeSubscriptionAPI) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeNotFoundErr struct{}

func (fakeNotFoundErr) Error() string    { return "subscription not found" }
func (fakeNotFoundErr) IsNotFound() bool { return true }

func TestManager_Subscribe(t *testing.T) {
	r, _ := newTestReceiver(t)
	api := &fakeSubscriptionAPI{}
	m := NewManager(api, r, "https://example.com/webhooks/eventsub")

	reg, err := m.Subscribe(context.Background(), TypeStreamOnline, "1", map[string]string{"broadcaster_user_id": "1337"})
	require.NoError(t, err)

	assert.Equal(t, "sub-created", reg.ID())
	assert.Equal(t, StatusVerificationPending, reg.Subscription().Status)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, TypeStreamOnline, req.Type)
	assert.Equal(t, "webhook", req.Transport.Method)
	assert.Equal(t, "https://example.com/webhooks/eventsub", req.Transport.Callback)
	assert.Equal(t, testSecret, req.Transport.Secret, "transport secret must match the receiver's")
}

func TestManager_SubscribeError(t *testing.T) {
	r, _ := newTestReceiver(t)
	api := &fakeSubscriptionAPI{createErr: errors.New("conflict")}
	m := NewManager(api, r, "https://example.com/webhooks/eventsub")

	_, err := m.Subscribe(context.Background(), TypeStreamOnline, "1", nil)
	assert.ErrorContains(t, err, "failed to create stream.online subscription")
}

func TestManager_Unsubscribe(t *testing.T) {
	r, _ := newTestReceiver(t)
	api := &fakeSubscriptionAPI{}
	m := NewManager(api, r, "https://example.com/webhooks/eventsub")

	reg, err := m.Subscribe(context.Background(), TypeStreamOnline, "1", nil)
	require.NoError(t, err)

	require.NoError(t, m.Unsubscribe(context.Background(), reg))
	assert.Equal(t, []string{"sub-created"}, api.deleted)
}

func TestManager_UnsubscribeMissingIsSuccess(t *testing.T) {
	r, _ := newTestReceiver(t)
	api := &fakeSubscriptionAPI{deleteErr: fakeNotFoundErr{}}
	m := NewManager(api, r, "https://example.com/webhooks/eventsub")

	reg := r.Register(testSubscription("sub-gone"))
	assert.NoError(t, m.Unsubscribe(context.Background(), reg))
}

func TestManager_UnsubscribeError(t *testing.T) {
	r, _ := newTestReceiver(t)
	api := &fakeSubscriptionAPI{deleteErr: errors.New("boom")}
	m := NewManager(api, r, "https://example.com/webhooks/eventsub")

	reg := r.Register(testSubscription("sub-1"))
	assert.ErrorContains(t, m.Unsubscribe(context.Background(), reg), "failed to delete subscription sub-1")
}
