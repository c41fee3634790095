package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.twitch.tv/helix"

// Client is the Helix API client. Create one with NewClient and use the
// attached services (Users, EventSub) to call endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	tokens     TokenSource

	// Services used for communicating with the Helix API endpoints.
	Users    *UsersService
	EventSub *EventSubService
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Helix client. Every request carries the Client-Id
// header and a bearer token from the given source.
func NewClient(clientID string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		clientID:   clientID,
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Users = &UsersService{client: c}
	c.EventSub = &EventSubService{client: c}

	return c
}

// do executes a request against the API and decodes the JSON response into
// out (which may be nil for endpoints that return no body). Responses with
// status >= 400 are mapped to *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return mapHTTPError(resp.StatusCode, u, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func mapHTTPError(status int, url string, body []byte) error {
	apiErr := &APIError{StatusCode: status, URL: url}

	// Helix error bodies look like {"error":"...","status":403,"message":"..."}.
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.ErrorText = parsed.Error
		apiErr.Message = parsed.Message
	}
	if apiErr.ErrorText == "" {
		apiErr.ErrorText = http.StatusText(status)
	}

	return apiErr
}
