package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultOAuthURL = "https://id.twitch.tv/oauth2/token"

// Tokens must remain valid for at least this long before a request reuses
// them; anything closer to expiry is refreshed first.
const tokenExpiryMargin = 60 * time.Second

// TokenSource supplies a bearer token for API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// AppTokenSource obtains app access tokens via the OAuth client-credentials
// flow and caches them until shortly before expiry. Safe for concurrent use.
type AppTokenSource struct {
	clientID     string
	clientSecret string
	oauthURL     string
	httpClient   *http.Client
	clock        clockwork.Clock

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// AppTokenOption configures an AppTokenSource.
type AppTokenOption func(*AppTokenSource)

// WithOAuthURL overrides the token endpoint (used in tests).
func WithOAuthURL(u string) AppTokenOption {
	return func(ts *AppTokenSource) { ts.oauthURL = u }
}

// WithTokenClock overrides the clock used for expiry checks.
func WithTokenClock(clock clockwork.Clock) AppTokenOption {
	return func(ts *AppTokenSource) { ts.clock = clock }
}

// NewAppTokenSource creates a token source for the given app credentials.
func NewAppTokenSource(clientID, clientSecret string, opts ...AppTokenOption) *AppTokenSource {
	ts := &AppTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		oauthURL:     defaultOAuthURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Token returns a valid app access token, refreshing it when the cached one
// has less than tokenExpiryMargin of validity left.
func (ts *AppTokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.accessToken != "" && ts.clock.Now().Add(tokenExpiryMargin).Before(ts.tokenExpiry) {
		return ts.accessToken, nil
	}

	token, expiresIn, err := ts.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	ts.accessToken = token
	ts.tokenExpiry = ts.clock.Now().Add(time.Duration(expiresIn) * time.Second)
	return ts.accessToken, nil
}

func (ts *AppTokenSource) fetchToken(ctx context.Context) (token string, expiresIn int, err error) {
	data := url.Values{}
	data.Set("client_id", ts.clientID)
	data.Set("client_secret", ts.clientSecret)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.oauthURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &AuthError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, &AuthError{Err: fmt.Errorf("unexpected token response: %w", err)}
	}
	if result.AccessToken == "" {
		return "", 0, &AuthError{Err: fmt.Errorf("token response contained no access token")}
	}

	return result.AccessToken, result.ExpiresIn, nil
}

// StaticTokenSource returns a TokenSource that always yields the given token.
// Useful in tests and for pre-provisioned tokens.
func StaticTokenSource(token string) TokenSource {
	return staticToken(token)
}

type staticToken string

func (t staticToken) Token(context.Context) (string, error) { return string(t), nil }
