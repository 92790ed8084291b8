package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/nfrund/presetmarket/internal/domain"
)

// Me returns the profile behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.Profile, error) {
	var out domain.Profile
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token}, &out); err != nil {
		return nil, fmt.Errorf("who am I: %w", err)
	}
	return &out, nil
}

// Authenticator validates tokens and fetches profiles as two steps over a
// single /auth/me round trip: ValidateToken remembers the profile it saw and
// FetchProfile hands it out for the same token.
type Authenticator struct {
	client *Client

	mu      sync.Mutex
	token   string
	profile *domain.Profile
}

// NewAuthenticator wraps c.
func NewAuthenticator(c *Client) *Authenticator {
	return &Authenticator{client: c}
}

// ValidateToken checks token against the backend.
func (a *Authenticator) ValidateToken(ctx context.Context, token string) error {
	p, err := a.client.Me(ctx, token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.token, a.profile = token, p
	a.mu.Unlock()
	return nil
}

// FetchProfile returns the profile for a token, reusing the result of the
// preceding ValidateToken when it was for the same token.
func (a *Authenticator) FetchProfile(ctx context.Context, token string) (*domain.Profile, error) {
	a.mu.Lock()
	if a.token == token && a.profile != nil {
		p := a.profile
		a.token, a.profile = "", nil
		a.mu.Unlock()
		return p, nil
	}
	a.mu.Unlock()
	return a.client.Me(ctx, token)
}
