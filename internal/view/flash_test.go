package view_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/presetmarket/internal/view"
)

// newFlashEcho wires a handler that queues notices and redirects, and a
// handler that reports what it finds, like a POST followed by a page load.
func newFlashEcho() *echo.Echo {
	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("flash-test-secret-0123456789"))))
	e.POST("/like", func(c echo.Context) error {
		view.SetFlashSuccess(c, "Liked.")
		view.SetFlashSuccess(c, "Thanks!")
		view.SetFlashError(c, "Comment cannot be empty.")
		return c.Redirect(http.StatusSeeOther, "/")
	})
	e.GET("/", func(c echo.Context) error {
		f := view.GetFlashData(c)
		if f.Empty() {
			return c.String(http.StatusOK, "none")
		}
		return c.String(http.StatusOK, strings.Join(f.Success, "|")+"#"+strings.Join(f.Error, "|"))
	})
	return e
}

func TestFlash_SurvivesRedirectOnce(t *testing.T) {
	e := newFlashEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/like", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	get := func(cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := get(cookies)
	assert.Equal(t, "Liked.|Thanks!#Comment cannot be empty.", first.Body.String())

	// Reading cleared the session; the updated cookie has no notices left.
	second := get(first.Result().Cookies())
	assert.Equal(t, "none", second.Body.String())
}

func TestFlash_NothingQueued(t *testing.T) {
	rec := httptest.NewRecorder()
	newFlashEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "none", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "reading no notices should not write a cookie")
}

func TestFlashData_Empty(t *testing.T) {
	assert.True(t, view.FlashData{}.Empty())
	assert.False(t, view.FlashData{Error: []string{"x"}}.Empty())
}
