package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

func TestCookieStorage_RoundTrip(t *testing.T) {
	e := echo.New()
	e.Use(echosession.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.GET("/save", func(c echo.Context) error {
		require.NoError(t, NewCookieStorage(c).Save(c.Request().Context(), "tok"))
		return c.NoContent(http.StatusOK)
	})
	e.GET("/load", func(c echo.Context) error {
		token, err := NewCookieStorage(c).Load(c.Request().Context())
		require.NoError(t, err)
		return c.String(http.StatusOK, token)
	})
	e.GET("/clear", func(c echo.Context) error {
		require.NoError(t, NewCookieStorage(c).Clear(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/save", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/load", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "tok", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/clear", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)

	req = httptest.NewRequest(http.MethodGet, "/load", nil)
	req.AddCookie(cleared[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Body.String())
}

func TestCookieStorage_ForeignCookieIsLoggedOut(t *testing.T) {
	e := echo.New()
	e.Use(echosession.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.GET("/load", func(c echo.Context) error {
		token, err := NewCookieStorage(c).Load(c.Request().Context())
		require.NoError(t, err)
		return c.String(http.StatusOK, token)
	})

	req := httptest.NewRequest(http.MethodGet, "/load", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tampered"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestFileStorage(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStorage(fs, "/home/u/.config/presetmarket/token")
	ctx := context.Background()

	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means no session")

	require.NoError(t, s.Save(ctx, "abc"))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStorage_Watch(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(afero.NewOsFs(), filepath.Join(dir, "token"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	require.NoError(t, s.Watch(ctx, func() { changed <- struct{}{} }))

	require.NoError(t, s.Save(ctx, "abc"))
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification for a new token file")
	}
}
