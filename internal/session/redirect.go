package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/nfrund/presetmarket/internal/domain"
)

// Outcome is the result of processing OAuth redirect parameters.
type Outcome int

const (
	// OutcomeNone means the redirect carried neither a token nor an error.
	OutcomeNone Outcome = iota
	// OutcomeLoggedIn means the token was adopted and validated.
	OutcomeLoggedIn
	// OutcomeFailed means the provider reported an error or the token was
	// rejected. Result.Message says why.
	OutcomeFailed
	// OutcomeIgnored means the handler had already run.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeLoggedIn:
		return "logged_in"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Result describes what the redirect handler did.
type Result struct {
	Outcome Outcome
	// Message is a user-facing failure reason for OutcomeFailed.
	Message string
	Err     error
}

// LoginCompleter is the part of the Store the redirect handler drives.
type LoginCompleter interface {
	CompleteLogin(ctx context.Context, token string) error
}

// RedirectHandler processes the parameters of one OAuth redirect. It runs at
// most once; later calls return OutcomeIgnored without side effects.
type RedirectHandler struct {
	login LoginCompleter
	done  atomic.Bool
}

// NewRedirectHandler creates a handler awaiting redirect parameters.
func NewRedirectHandler(login LoginCompleter) *RedirectHandler {
	return &RedirectHandler{login: login}
}

// Handle processes the "error" and "token" query parameters. An error takes
// precedence over a token.
func (h *RedirectHandler) Handle(ctx context.Context, params url.Values) Result {
	if !h.done.CompareAndSwap(false, true) {
		return Result{Outcome: OutcomeIgnored}
	}

	if msg := strings.TrimSpace(params.Get("error")); msg != "" {
		return Result{Outcome: OutcomeFailed, Message: msg}
	}

	token := strings.TrimSpace(params.Get("token"))
	if token == "" {
		return Result{Outcome: OutcomeNone}
	}

	if err := h.login.CompleteLogin(ctx, token); err != nil {
		return Result{Outcome: OutcomeFailed, Message: failureMessage(err), Err: err}
	}
	return Result{Outcome: OutcomeLoggedIn}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "the sign-in token was not accepted"
	case errors.Is(err, domain.ErrTransport):
		return "the server could not be reached"
	default:
		return "the session could not be verified"
	}
}
