package session

import (
	"context"
	"testing"
	"time"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCache(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["good"] = &domain.Profile{ID: 1, Username: "amy"}
	cache := NewProfileCache(auth, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		require.NoError(t, cache.ValidateToken(ctx, "good"))
		p, err := cache.FetchProfile(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "amy", p.Username)
	}
	assert.Equal(t, 1, auth.validate)
	assert.Equal(t, 1, auth.fetch)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cache.ValidateToken(ctx, "good"))
	assert.Equal(t, 2, auth.validate, "expired entries are revalidated")

	cache.Invalidate("good")
	assert.Zero(t, cache.Len())
}

func TestProfileCache_RejectionNotCached(t *testing.T) {
	auth := newFakeAuth()
	cache := NewProfileCache(auth, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, cache.ValidateToken(ctx, "bad"), domain.ErrUnauthorized)
	assert.ErrorIs(t, cache.ValidateToken(ctx, "bad"), domain.ErrUnauthorized)
	assert.Equal(t, 2, auth.validate)
	assert.Zero(t, cache.Len())
}

func TestProfileCache_Disabled(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["good"] = &domain.Profile{ID: 1}
	cache := NewProfileCache(auth, 0)
	ctx := context.Background()

	require.NoError(t, cache.ValidateToken(ctx, "good"))
	require.NoError(t, cache.ValidateToken(ctx, "good"))
	assert.Equal(t, 2, auth.validate)
}

func TestProfileCache_BehindStore(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["good"] = &domain.Profile{ID: 1, Username: "amy"}
	cache := NewProfileCache(auth, time.Minute)

	for range 2 {
		store := NewStore(&memStorage{token: "good"}, cache, testLoginURL)
		require.NoError(t, store.Restore(context.Background()))
		assert.True(t, store.IsAuthenticated())
	}
	assert.Equal(t, 1, auth.validate)
}
