package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/session"
	"github.com/nfrund/presetmarket/internal/view"
)

// TokenInvalidator forgets cached validation results for a token.
type TokenInvalidator interface {
	Invalidate(token string)
}

// AuthHandler drives the OAuth login, its redirect and logout.
type AuthHandler struct {
	cache TokenInvalidator
}

// NewAuthHandler creates a new AuthHandler. cache may be nil.
func NewAuthHandler(cache TokenInvalidator) *AuthHandler {
	return &AuthHandler{cache: cache}
}

// Login sends the browser to the backend's OAuth entry point (GET /auth/login).
func (h *AuthHandler) Login(c echo.Context) error {
	store := middleware.SessionFrom(c)
	if store == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return c.Redirect(http.StatusFound, store.BeginLogin())
}

// Callback handles the OAuth redirect (GET /auth/callback). The outcome is
// reported with a flash on the home page and the parameters are dropped from
// the address bar by the redirect.
func (h *AuthHandler) Callback(c echo.Context) error {
	store := middleware.SessionFrom(c)
	if store == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	res := session.NewRedirectHandler(store).Handle(ctx, c.QueryParams())
	switch res.Outcome {
	case session.OutcomeLoggedIn:
		if prof := store.Profile(); prof != nil {
			logger.Info("User logged in", "user_id", prof.ID, "username", prof.Username)
			view.SetFlashSuccess(c, "Welcome, "+prof.Username+"!")
		}
	case session.OutcomeFailed:
		logger.Warn("Login failed", "reason", res.Message, "error", res.Err)
		view.SetFlashError(c, "Login failed: "+res.Message)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout ends the session (POST /auth/logout).
func (h *AuthHandler) Logout(c echo.Context) error {
	store := middleware.SessionFrom(c)
	if store == nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	ctx := c.Request().Context()
	token := store.Token()
	if err := store.Logout(ctx); err != nil {
		middleware.FromContext(ctx).Error("Failed to clear session", "error", err)
	}
	if h.cache != nil && token != "" {
		h.cache.Invalidate(token)
	}
	view.SetFlashSuccess(c, "You have been logged out.")
	return c.Redirect(http.StatusSeeOther, "/")
}
