package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/session"
	"github.com/nfrund/presetmarket/internal/view"
)

// SessionContextKey is the echo context key of the request's session store.
const SessionContextKey = "session"

// Session restores the viewer's session from the signed cookie and makes it
// available to handlers through SessionFrom. A stored token the backend no
// longer accepts is dropped here, before any handler runs.
func Session(auth session.Authenticator, loginURL string, listeners ...session.Listener) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			opts := []session.StoreOption{session.WithLogger(FromContext(ctx))}
			for _, l := range listeners {
				opts = append(opts, session.WithListener(l))
			}
			store := session.NewStore(session.NewCookieStorage(c), auth, loginURL, opts...)
			if err := store.Restore(ctx); err != nil {
				FromContext(ctx).Warn("Failed to restore session", "error", err)
			}
			c.Set(SessionContextKey, store)
			return next(c)
		}
	}
}

// SessionFrom returns the request's session store. Outside the Session
// middleware it returns nil.
func SessionFrom(c echo.Context) *session.Store {
	store, _ := c.Get(SessionContextKey).(*session.Store)
	return store
}

// RequireLogin sends anonymous requests home with a notice. htmx requests
// are told to load the page themselves through HX-Redirect.
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store := SessionFrom(c); store != nil && store.IsAuthenticated() {
			return next(c)
		}
		view.SetFlashError(c, "Please log in first.")
		if c.Request().Header.Get("HX-Request") == "true" {
			c.Response().Header().Set("HX-Redirect", "/")
			return c.NoContent(http.StatusNoContent)
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
}
