package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/handlers"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/session"
)

const (
	testSessionSecret = "a-very-secret-key-for-testing-!"
	testLoginURL      = "http://backend.test/api/auth/github"
)

var testProfile = &domain.Profile{ID: 1, Username: "octocat", AvatarURL: "http://avatars.test/1.png"}

func assetURL(ref string) string { return "http://backend.test/" + ref }

// fakeGateway stands in for the backend client.
type fakeGateway struct {
	mu sync.Mutex

	page      *domain.PresetPage
	listErr   error
	lastQuery domain.ListQuery

	preset   *domain.PresetDetail
	getErr   error
	comments []domain.Comment

	like      domain.LikeResult
	likeErr   error
	likeCalls int

	posted          []string
	deletedComments []int64
	deleted         []int64
	download        *domain.Download

	created     *domain.CreatedPreset
	createCalls int
	lastCreate  domain.NewPreset

	own       []domain.OwnPreset
	updates   map[int64]domain.PresetUpdate
	updateErr error
}

func (f *fakeGateway) ListPresets(_ context.Context, _ string, q domain.ListQuery) (*domain.PresetPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.page == nil {
		return &domain.PresetPage{Items: []domain.PresetSummary{}}, nil
	}
	return f.page, nil
}

func (f *fakeGateway) GetPreset(_ context.Context, _ string, _ int64) (*domain.PresetDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.preset
	return &cp, nil
}

func (f *fakeGateway) ListComments(_ context.Context, _ string, _ int64) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments, nil
}

func (f *fakeGateway) ToggleLike(_ context.Context, _ string, _ int64) (domain.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	if f.likeErr != nil {
		return domain.LikeResult{}, f.likeErr
	}
	return f.like, nil
}

func (f *fakeGateway) CreateComment(_ context.Context, _ string, _ int64, content string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, content)
	return &domain.Comment{ID: 99, Content: content}, nil
}

func (f *fakeGateway) DeleteComment(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedComments = append(f.deletedComments, id)
	return nil
}

func (f *fakeGateway) UpdatePreset(_ context.Context, _ string, id int64, u domain.PresetUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = map[int64]domain.PresetUpdate{}
	}
	f.updates[id] = u
	return nil
}

func (f *fakeGateway) DeletePreset(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) DownloadPreset(_ context.Context, _ string, _ int64, _ string) (*domain.Download, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.download, nil
}

func (f *fakeGateway) CreatePreset(_ context.Context, _ string, p domain.NewPreset) (*domain.CreatedPreset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = p
	return f.created, nil
}

func (f *fakeGateway) MyPresets(_ context.Context, _ string) ([]domain.OwnPreset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.own, nil
}

// fakeAuth accepts "good" and rejects every other token.
type fakeAuth struct{}

func (fakeAuth) ValidateToken(_ context.Context, token string) error {
	if token != "good" {
		return domain.ErrUnauthorized
	}
	return nil
}

func (fakeAuth) FetchProfile(_ context.Context, token string) (*domain.Profile, error) {
	if token != "good" {
		return nil, domain.ErrUnauthorized
	}
	p := *testProfile
	return &p, nil
}

type memStorage struct {
	mu    sync.Mutex
	token string
}

func (m *memStorage) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStorage) Clear(context.Context) error {
	return m.Save(context.Background(), "")
}

// loggedIn returns a validated session for testProfile.
func loggedIn(t *testing.T) *session.Store {
	t.Helper()
	store := session.NewStore(&memStorage{}, fakeAuth{}, testLoginURL)
	require.NoError(t, store.CompleteLogin(context.Background(), "good"))
	return store
}

// newTestEcho sets up cookie sessions and, when store is non-nil, installs it
// as the request's session.
func newTestEcho(store *session.Store) *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(echosession.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	if store != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(middleware.SessionContextKey, store)
				return next(c)
			}
		})
	}
	return e
}

func newRenderer() rendering.Renderer { return rendering.NewUniversalRenderer() }

// flashes decodes the flash messages set by the response.
func flashes(t *testing.T, rec *httptest.ResponseRecorder, key string) []string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	sess, err := sessions.NewCookieStore([]byte(testSessionSecret)).Get(req, "flash-session")
	require.NoError(t, err)
	var out []string
	for _, v := range sess.Flashes(key) {
		out = append(out, v.(string))
	}
	return out
}

// carryCookies copies the cookies set by rec onto req.
func carryCookies(req *http.Request, rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
