package session

import (
	"context"
	"sync"
	"time"

	"github.com/nfrund/presetmarket/internal/domain"
)

const maxCachedProfiles = 1024

type cachedProfile struct {
	validated bool
	profile   *domain.Profile
	expires   time.Time
}

// ProfileCache sits between a Store and the backend and remembers validated
// tokens for a while, so a frontend that restores the session on every
// request does not ask the backend every time. Rejections are never cached.
type ProfileCache struct {
	next Authenticator
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cachedProfile
}

// NewProfileCache wraps next. A ttl of zero or less disables caching.
func NewProfileCache(next Authenticator, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedProfile),
	}
}

// ValidateToken implements Validator.
func (c *ProfileCache) ValidateToken(ctx context.Context, token string) error {
	if c.ttl <= 0 {
		return c.next.ValidateToken(ctx, token)
	}
	if e, ok := c.lookup(token); ok && e.validated {
		return nil
	}
	if err := c.next.ValidateToken(ctx, token); err != nil {
		c.Invalidate(token)
		return err
	}
	c.mu.Lock()
	e := c.entries[token]
	e.validated = true
	e.expires = c.now().Add(c.ttl)
	c.store(token, e)
	c.mu.Unlock()
	return nil
}

// FetchProfile implements ProfileFetcher.
func (c *ProfileCache) FetchProfile(ctx context.Context, token string) (*domain.Profile, error) {
	if c.ttl <= 0 {
		return c.next.FetchProfile(ctx, token)
	}
	if e, ok := c.lookup(token); ok && e.profile != nil {
		p := *e.profile
		return &p, nil
	}
	p, err := c.next.FetchProfile(ctx, token)
	if err != nil {
		c.Invalidate(token)
		return nil, err
	}
	c.mu.Lock()
	c.store(token, cachedProfile{validated: true, profile: p, expires: c.now().Add(c.ttl)})
	c.mu.Unlock()
	return p, nil
}

// Invalidate forgets token, e.g. after logout.
func (c *ProfileCache) Invalidate(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}

// Len returns the number of cached tokens.
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ProfileCache) lookup(token string) (cachedProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[token]
	if !ok {
		return cachedProfile{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, token)
		return cachedProfile{}, false
	}
	return e, true
}

// store must be called with c.mu held.
func (c *ProfileCache) store(token string, e cachedProfile) {
	if _, ok := c.entries[token]; !ok && len(c.entries) >= maxCachedProfiles {
		now := c.now()
		for k, v := range c.entries {
			if !now.Before(v.expires) {
				delete(c.entries, k)
			}
		}
		// Still full: drop an arbitrary entry.
		for k := range c.entries {
			if len(c.entries) < maxCachedProfiles {
				break
			}
			delete(c.entries, k)
		}
	}
	c.entries[token] = e
}
