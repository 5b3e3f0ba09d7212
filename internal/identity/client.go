package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidToken is returned when the identity provider rejects a token.
var ErrInvalidToken = errors.New("invalid token")

// User is the identity bound to a connection after verification.
type User struct {
	ID       string
	Email    string
	Username string
}

// Verifier validates bearer tokens against the identity provider.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (User, error)
}

// Client talks to the identity provider's REST user endpoint.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient constructs the wrapper.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

// VerifyToken resolves the bearer token to a user, or fails with
// ErrInvalidToken when the provider does not recognize it.
func (c *Client) VerifyToken(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return User{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("identity provider: unexpected status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return User{}, fmt.Errorf("identity provider: decode: %w", err)
	}
	if body.ID == "" {
		return User{}, ErrInvalidToken
	}

	return User{ID: body.ID, Email: body.Email, Username: body.UserMetadata.Username}, nil
}

var _ Verifier = (*Client)(nil)
