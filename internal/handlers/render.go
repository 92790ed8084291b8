package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	cmp "maragu.dev/gomponents"

	"github.com/nfrund/presetmarket/internal/backend"
	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/layouts"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
)

// viewer is the request's session as the view models see it.
type viewer interface {
	IsAuthenticated() bool
	Token() string
	Profile() *domain.Profile
}

type anonymous struct{}

func (anonymous) IsAuthenticated() bool     { return false }
func (anonymous) Token() string             { return "" }
func (anonymous) Profile() *domain.Profile { return nil }

// currentViewer returns the session installed by the session middleware,
// or an anonymous viewer.
func currentViewer(c echo.Context) viewer {
	if store := middleware.SessionFrom(c); store != nil {
		return store
	}
	return anonymous{}
}

// renderPage wraps content in the base layout with the viewer's profile and
// pending flashes.
func renderPage(c echo.Context, r rendering.Renderer, status int, title string, content cmp.Node) error {
	page := layouts.Page{
		Title:   title,
		Profile: currentViewer(c).Profile(),
		Flashes: view.GetFlashData(c),
	}
	return r.RenderPage(c, status, layouts.Base(page, content))
}

// renderError renders the error page for err.
func renderError(c echo.Context, r rendering.Renderer, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case backend.IsAuthError(err):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrTransport):
		status = http.StatusBadGateway
	}
	return renderPage(c, r, status, http.StatusText(status),
		pages.Error(c.Request().Context(), status, userMessage(err)))
}

// userMessage turns an action failure into the notice shown to the viewer.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrLoginRequired):
		return "Please log in first."
	case backend.IsAuthError(err):
		return "Your session has expired. Please log in again."
	case errors.Is(err, domain.ErrNotFound):
		return "That preset no longer exists."
	case errors.Is(err, domain.ErrTransport):
		return "The preset server is unreachable. Please try again later."
	case errors.Is(err, domain.ErrEmptyComment):
		return "Comment cannot be empty."
	case errors.Is(err, domain.ErrNotOwner):
		return "Only the author can change this preset."
	case errors.Is(err, domain.ErrInvalidSort):
		return "Unknown sort order."
	case errors.Is(err, domain.ErrValidation):
		return "The server rejected the request."
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Something went wrong. Please try again."
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "unknown id")
	}
	return id, nil
}

// backTo redirects to the page the request came from when it is on this
// site, otherwise to fallback.
func backTo(c echo.Context, fallback string) error {
	return c.Redirect(http.StatusSeeOther, backTarget(c, fallback))
}

func backTarget(c echo.Context, fallback string) string {
	if ref, err := url.Parse(c.Request().Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == c.Request().Host) {
		return ref.RequestURI()
	}
	return fallback
}

// hxRedirect makes htmx load target as a full page, where queued flash
// notices are shown. htmx does not swap error responses, so failures of
// fragment requests are reported this way.
func hxRedirect(c echo.Context, target string) error {
	c.Response().Header().Set("HX-Redirect", target)
	return c.NoContent(http.StatusNoContent)
}
