package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLoginURL = "http://localhost:8000/api/auth/github"

// fakeAuth accepts the tokens in valid. A gate, when set for a token, blocks
// validation of that token until the channel is closed.
type fakeAuth struct {
	mu       sync.Mutex
	valid    map[string]*domain.Profile
	gates    map[string]chan struct{}
	started  chan string
	validate int
	fetch    int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		valid:   map[string]*domain.Profile{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 8),
	}
}

func (f *fakeAuth) ValidateToken(ctx context.Context, token string) error {
	f.mu.Lock()
	f.validate++
	gate := f.gates[token]
	f.mu.Unlock()

	f.started <- token
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.valid[token]; !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

func (f *fakeAuth) FetchProfile(ctx context.Context, token string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetch++
	p, ok := f.valid[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

type memStorage struct {
	mu      sync.Mutex
	token   string
	loadErr error
}

func (m *memStorage) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.loadErr
}

func (m *memStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *memStorage) stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func recordReasons(s *Store) func() []Reason {
	var mu sync.Mutex
	var reasons []Reason
	s.Subscribe(func(_ context.Context, ev Event) {
		mu.Lock()
		reasons = append(reasons, ev.Reason)
		mu.Unlock()
	})
	return func() []Reason {
		mu.Lock()
		defer mu.Unlock()
		return append([]Reason(nil), reasons...)
	}
}

func TestRestore_ExpiredTokenLogsOut(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := NewFileStorage(fs, "/cfg/presetmarket/token")
	require.NoError(t, storage.Save(context.Background(), "expired"))

	store := NewStore(storage, newFakeAuth(), testLoginURL)
	reasons := recordReasons(store)

	require.NoError(t, store.Restore(context.Background()))

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Token())
	exists, err := afero.Exists(fs, "/cfg/presetmarket/token")
	require.NoError(t, err)
	assert.False(t, exists, "rejected token must be removed from storage")
	assert.Equal(t, []Reason{ReasonTokenAdopted, ReasonInvalidated}, reasons())
}

func TestRestore_ValidToken(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["good"] = &domain.Profile{ID: 1, Username: "amy"}
	storage := &memStorage{token: "good"}
	store := NewStore(storage, auth, testLoginURL)

	require.NoError(t, store.Restore(context.Background()))

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "amy", store.Profile().Username)
	assert.Equal(t, "good", storage.stored())
}

func TestRestore_NothingStored(t *testing.T) {
	auth := newFakeAuth()
	store := NewStore(&memStorage{}, auth, testLoginURL)

	require.NoError(t, store.Restore(context.Background()))
	assert.False(t, store.IsAuthenticated())
	assert.Zero(t, auth.validate, "no token, no validation call")
}

func TestRestore_StorageError(t *testing.T) {
	store := NewStore(&memStorage{loadErr: errors.New("disk gone")}, newFakeAuth(), testLoginURL)
	assert.Error(t, store.Restore(context.Background()))
}

func TestCompleteLoginThenLogout(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["fresh"] = &domain.Profile{ID: 7, Username: "bob"}
	storage := &memStorage{}
	store := NewStore(storage, auth, testLoginURL)
	reasons := recordReasons(store)

	require.NoError(t, store.CompleteLogin(context.Background(), "fresh"))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "fresh", storage.stored())

	require.NoError(t, store.Logout(context.Background()))
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Token())
	assert.Empty(t, storage.stored())

	// Idempotent.
	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, []Reason{ReasonTokenAdopted, ReasonAuthenticated, ReasonLoggedOut}, reasons())
}

func TestCompleteLogin_Rejected(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage, newFakeAuth(), testLoginURL)

	err := store.CompleteLogin(context.Background(), "forged")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, storage.stored())
}

func TestCompleteLogin_EmptyToken(t *testing.T) {
	auth := newFakeAuth()
	store := NewStore(&memStorage{}, auth, testLoginURL)
	assert.ErrorIs(t, store.CompleteLogin(context.Background(), "  "), domain.ErrUnauthorized)
	assert.Zero(t, auth.validate)
}

func TestStaleValidationIsDiscarded(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["new"] = &domain.Profile{ID: 2, Username: "new"}
	gate := make(chan struct{})
	auth.gates["old"] = gate

	storage := &memStorage{token: "old"}
	store := NewStore(storage, auth, testLoginURL)

	restored := make(chan error, 1)
	go func() { restored <- store.Restore(context.Background()) }()
	require.Equal(t, "old", <-auth.started)

	// A newer login lands while the old token is still being validated.
	require.NoError(t, store.CompleteLogin(context.Background(), "new"))
	<-auth.started

	close(gate)
	require.NoError(t, <-restored)

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "new", store.Token())
	assert.Equal(t, "new", storage.stored(), "the old token's failure must not clear the new one")
}

func TestLogoutDuringValidation(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["tok"] = &domain.Profile{ID: 1}
	gate := make(chan struct{})
	auth.gates["tok"] = gate
	store := NewStore(&memStorage{token: "tok"}, auth, testLoginURL)

	restored := make(chan error, 1)
	go func() { restored <- store.Restore(context.Background()) }()
	<-auth.started

	require.NoError(t, store.Logout(context.Background()))
	close(gate)
	require.NoError(t, <-restored)

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Token())
}

func TestCanceledValidationKeepsToken(t *testing.T) {
	auth := newFakeAuth()
	storage := &memStorage{token: "tok"}
	store := NewStore(storage, auth, testLoginURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, store.Restore(ctx))

	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, "tok", storage.stored())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["a"] = &domain.Profile{ID: 1}
	store := NewStore(&memStorage{}, auth, testLoginURL)

	calls := 0
	unsubscribe := store.Subscribe(func(context.Context, Event) { calls++ })
	require.NoError(t, store.CompleteLogin(context.Background(), "a"))
	assert.Equal(t, 2, calls)

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestBeginLogin(t *testing.T) {
	store := NewStore(&memStorage{}, newFakeAuth(), testLoginURL)
	assert.Equal(t, testLoginURL, store.BeginLogin())
	assert.False(t, store.IsAuthenticated())
}
