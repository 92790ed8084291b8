package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/layouts"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
)

// setupErrorHandling installs the central HTTP error handler. echo.HTTPErrors
// keep their status; anything else is an unhandled failure and is logged with
// a stack trace before a generic 500 page is rendered.
func setupErrorHandling(e *echo.Echo) {
	renderer := rendering.NewUniversalRenderer()

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Something went wrong on our side."
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			slog.Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"path", c.Request().URL.Path,
				"request_id", middleware.RequestID(c),
				"stack_trace", string(debug.Stack()),
			)
		}

		var respErr error
		switch {
		case c.Request().Method == http.MethodHead:
			respErr = c.NoContent(status)
		case c.Request().Header.Get("HX-Request") == "true":
			// htmx drops error responses; reload the page with a notice.
			view.SetFlashError(c, message)
			c.Response().Header().Set("HX-Redirect", refererPath(c))
			respErr = c.NoContent(http.StatusNoContent)
		default:
			page := layouts.Page{Title: http.StatusText(status)}
			if store := middleware.SessionFrom(c); store != nil {
				page.Profile = store.Profile()
			}
			content := pages.Error(c.Request().Context(), status, message)
			respErr = renderer.RenderPage(c, status, layouts.Base(page, content))
		}
		if respErr != nil {
			slog.Error("Failed to write error response", "error", fmt.Sprint(respErr))
		}
	}
}

// refererPath is the same-site page the request came from, or "/".
func refererPath(c echo.Context) string {
	ref, err := url.Parse(c.Request().Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != c.Request().Host) {
		return "/"
	}
	return ref.RequestURI()
}
