// Package session holds the client-side authentication state: the bearer
// token, the profile it was validated against, and where the token persists
// between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nfrund/presetmarket/internal/domain"
)

// ErrSuperseded is returned when a login or logout replaced the token while
// it was being validated. The result of that validation was discarded.
var ErrSuperseded = errors.New("session changed during validation")

// State is a snapshot of the session. A non-nil Profile implies a validated
// Token; a Token without Profile is still being validated.
type State struct {
	Token   string
	Profile *domain.Profile
}

// Reason names the transition that produced an Event.
type Reason string

const (
	ReasonTokenAdopted  Reason = "token_adopted"
	ReasonAuthenticated Reason = "authenticated"
	ReasonInvalidated   Reason = "invalidated"
	ReasonLoggedOut     Reason = "logged_out"
)

// Event is delivered to listeners after every session mutation.
type Event struct {
	Reason Reason
	State  State
}

// Listener observes session changes. It runs on the goroutine that mutated
// the session, after the store's lock is released.
type Listener func(ctx context.Context, ev Event)

// Validator checks that a token is accepted by the backend.
type Validator interface {
	ValidateToken(ctx context.Context, token string) error
}

// ProfileFetcher loads the profile for an accepted token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (*domain.Profile, error)
}

// Authenticator is a Validator that can also fetch profiles.
type Authenticator interface {
	Validator
	ProfileFetcher
}

// TokenStorage persists the token between runs. Load returns "" when nothing
// is stored.
type TokenStorage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	storage  TokenStorage
	auth     Authenticator
	loginURL string
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithListener subscribes l from the start.
func WithListener(l Listener) StoreOption {
	return func(s *Store) { s.Subscribe(l) }
}

// NewStore creates an empty, logged-out session. loginURL is the backend's
// OAuth entry point handed out by BeginLogin.
func NewStore(storage TokenStorage, auth Authenticator, loginURL string, opts ...StoreOption) *Store {
	s := &Store{
		storage:   storage,
		auth:      auth,
		loginURL:  loginURL,
		logger:    slog.Default(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore adopts a previously stored token and validates it. A token the
// backend no longer accepts is dropped from memory and storage and the
// session stays logged out; that is not an error. Only a failure to read the
// storage is returned.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if !s.adopt(ctx, token, false) {
		return nil
	}
	if err := s.validate(ctx, token); err != nil && !errors.Is(err, ErrSuperseded) {
		s.logger.WarnContext(ctx, "Stored session token rejected", "error", err)
	}
	return nil
}

// BeginLogin returns the URL that starts the OAuth flow. It does not change
// the session.
func (s *Store) BeginLogin() string {
	return s.loginURL
}

// CompleteLogin adopts a token issued by the OAuth redirect, persists it and
// validates it. On failure the session is already reset when the error is
// returned.
func (s *Store) CompleteLogin(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("complete login: %w: empty token", domain.ErrUnauthorized)
	}
	s.adopt(ctx, token, true)
	if err := s.validate(ctx, token); err != nil {
		return fmt.Errorf("complete login: %w", err)
	}
	return nil
}

// Logout clears the session and the stored token. It is idempotent.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	hadSession := s.state.Token != ""
	s.state = State{}
	err := s.storage.Clear(ctx)
	s.mu.Unlock()

	if hadSession {
		s.emit(ctx, ReasonLoggedOut, State{})
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a validated profile is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Profile != nil
}

// Token returns the current token, validated or not.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Profile returns the validated profile, or nil.
func (s *Store) Profile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Profile
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// adopt installs token without a profile. It reports whether anything
// changed; re-adopting the current token keeps its profile.
func (s *Store) adopt(ctx context.Context, token string, persist bool) bool {
	s.mu.Lock()
	if s.state.Token == token && s.state.Profile != nil && !persist {
		s.mu.Unlock()
		return false
	}
	s.state = State{Token: token}
	var saveErr error
	if persist {
		saveErr = s.storage.Save(ctx, token)
	}
	snapshot := s.state
	s.mu.Unlock()

	if saveErr != nil {
		// The in-memory session still works for this run.
		s.logger.WarnContext(ctx, "Failed to persist session token", "error", saveErr)
	}
	s.emit(ctx, ReasonTokenAdopted, snapshot)
	return true
}

// validate runs both validation steps for token and applies the outcome,
// unless the session moved on to another token in the meantime.
func (s *Store) validate(ctx context.Context, token string) error {
	err := s.auth.ValidateToken(ctx, token)
	var profile *domain.Profile
	if err == nil {
		profile, err = s.auth.FetchProfile(ctx, token)
	}
	if err == nil && profile == nil {
		err = fmt.Errorf("%w: empty profile", domain.ErrUnauthorized)
	}

	// A canceled caller says nothing about the token; keep it for the next
	// restore.
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("validate session: %w", ctx.Err())
	}

	s.mu.Lock()
	if s.state.Token != token {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.state = State{}
		clearErr := s.storage.Clear(context.WithoutCancel(ctx))
		s.mu.Unlock()

		if clearErr != nil {
			s.logger.WarnContext(ctx, "Failed to clear rejected session token", "error", clearErr)
		}
		s.emit(ctx, ReasonInvalidated, State{})
		return fmt.Errorf("validate session: %w", err)
	}
	s.state.Profile = profile
	snapshot := s.state
	s.mu.Unlock()

	s.emit(ctx, ReasonAuthenticated, snapshot)
	return nil
}

func (s *Store) emit(ctx context.Context, reason Reason, state State) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	ev := Event{Reason: reason, State: state}
	for _, l := range listeners {
		l(ctx, ev)
	}
}
