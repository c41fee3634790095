package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// User represents a Twitch user as returned by the /users endpoint.
type User struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Type            string    `json:"type"`
	BroadcasterType string    `json:"broadcaster_type"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserQuery selects users by id and/or login. The API accepts up to 100
// identifiers per request.
type UserQuery struct {
	IDs    []string
	Logins []string
}

// UsersService handles user lookups.
type UsersService struct {
	client *Client
}

// Get fetches users matching the query. With an empty query the API resolves
// the user owning the access token, which for app tokens is an error.
func (s *UsersService) Get(ctx context.Context, q UserQuery) ([]User, error) {
	if len(q.IDs)+len(q.Logins) > 100 {
		return nil, fmt.Errorf("user query exceeds 100 identifiers")
	}

	query := url.Values{}
	for _, id := range q.IDs {
		query.Add("id", id)
	}
	for _, login := range q.Logins {
		query.Add("login", login)
	}

	var resp page[User]
	if err := s.client.do(ctx, http.MethodGet, "/users", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return resp.Data, nil
}

// GetByLogin fetches a single user by login name. Returns a 404-shaped
// *APIError when the login does not exist.
func (s *UsersService) GetByLogin(ctx context.Context, login string) (*User, error) {
	users, err := s.Get(ctx, UserQuery{Logins: []string{login}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, ErrorText: "Not Found", Message: fmt.Sprintf("user %q not found", login)}
	}
	return &users[0], nil
}
