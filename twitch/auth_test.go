package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, calls *atomic.Int32, token string, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test_client", r.FormValue("client_id"))
		assert.Equal(t, "test_secret", r.FormValue("client_secret"))
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		})
	}))
}

func TestAppTokenSource_FetchesToken(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, "app-token", 3600)
	defer srv.Close()

	ts := NewAppTokenSource("test_client", "test_secret", WithOAuthURL(srv.URL))

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app-token", token)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAppTokenSource_CachesUntilNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, "app-token", 3600)
	defer srv.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ts := NewAppTokenSource("test_client", "test_secret", WithOAuthURL(srv.URL), WithTokenClock(clock))

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// Well inside validity: cached, no second fetch.
	clock.Advance(30 * time.Minute)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Within the 60s expiry margin: refreshed.
	clock.Advance(30 * time.Minute)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAppTokenSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":403,"message":"invalid client secret"}`))
	}))
	defer srv.Close()

	ts := NewAppTokenSource("test_client", "bad_secret", WithOAuthURL(srv.URL))

	_, err := ts.Token(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
	assert.Contains(t, authErr.Message, "invalid client secret")
}

func TestAppTokenSource_EmptyTokenResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ts := NewAppTokenSource("test_client", "test_secret", WithOAuthURL(srv.URL))

	_, err := ts.Token(context.Background())
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestStaticTokenSource(t *testing.T) {
	token, err := StaticTokenSource("fixed").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", token)
}
