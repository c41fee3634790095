package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MindfulMinun/twitch-api/eventsub"
)

// EventSubService manages EventSub subscriptions over REST. It satisfies
// eventsub.SubscriptionAPI, so it plugs straight into eventsub.Manager.
type EventSubService struct {
	client *Client
}

// SubscriptionListOptions filters subscription listings. After is the cursor
// from a previous page.
type SubscriptionListOptions struct {
	Status string
	Type   string
	After  string
}

// SubscriptionPage is one page of a subscription listing plus the account's
// cost accounting.
type SubscriptionPage struct {
	Subscriptions []eventsub.Subscription
	Total         int
	TotalCost     int
	MaxTotalCost  int
	Cursor        string // empty when the listing is exhausted
}

// subscriptionListResponse mirrors the /eventsub/subscriptions list body,
// which extends the usual page envelope with cost fields.
type subscriptionListResponse struct {
	Data       []eventsub.Subscription `json:"data"`
	Total      int                     `json:"total"`
	TotalCost  int                     `json:"total_cost"`
	MaxTotal   int                     `json:"max_total_cost"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// Create registers a new subscription. The API responds 202 with the created
// record in verification-pending status.
func (s *EventSubService) Create(ctx context.Context, req eventsub.SubscriptionRequest) (*eventsub.Subscription, error) {
	var resp page[eventsub.Subscription]
	if err := s.client.do(ctx, http.MethodPost, "/eventsub/subscriptions", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create eventsub subscription: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("eventsub create returned no subscription")
	}
	return &resp.Data[0], nil
}

// Delete removes a subscription by id. Irreversible; notifications stop once
// the deletion takes effect.
func (s *EventSubService) Delete(ctx context.Context, id string) error {
	query := url.Values{}
	query.Set("id", id)
	if err := s.client.do(ctx, http.MethodDelete, "/eventsub/subscriptions", query, nil, nil); err != nil {
		return fmt.Errorf("failed to delete eventsub subscription: %w", err)
	}
	return nil
}

// List fetches one page of subscriptions.
func (s *EventSubService) List(ctx context.Context, opts SubscriptionListOptions) (*SubscriptionPage, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	if opts.After != "" {
		query.Set("after", opts.After)
	}

	var resp subscriptionListResponse
	if err := s.client.do(ctx, http.MethodGet, "/eventsub/subscriptions", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list eventsub subscriptions: %w", err)
	}

	return &SubscriptionPage{
		Subscriptions: resp.Data,
		Total:         resp.Total,
		TotalCost:     resp.TotalCost,
		MaxTotalCost:  resp.MaxTotal,
		Cursor:        resp.Pagination.Cursor,
	}, nil
}

// ListAll walks the cursor until the listing is exhausted.
func (s *EventSubService) ListAll(ctx context.Context, opts SubscriptionListOptions) ([]eventsub.Subscription, error) {
	var all []eventsub.Subscription
	for {
		pg, err := s.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, pg.Subscriptions...)
		if pg.Cursor == "" {
			return all, nil
		}
		opts.After = pg.Cursor
	}
}
