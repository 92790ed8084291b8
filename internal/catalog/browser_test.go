package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	token string
}

func (s fakeSession) IsAuthenticated() bool { return s.token != "" }
func (s fakeSession) Token() string         { return s.token }

// fakeGateway serves total presets, PageSize per page, and records every
// request.
type fakeGateway struct {
	mu      sync.Mutex
	total   int
	queries []domain.ListQuery
	likes   map[int64]bool
	counts  map[int64]int
	likeErr error
	likeN   int
	listErr error
}

func newFakeGateway(total int) *fakeGateway {
	return &fakeGateway{total: total, likes: map[int64]bool{}, counts: map[int64]int{}}
}

func (g *fakeGateway) ListPresets(ctx context.Context, token string, q domain.ListQuery) (*domain.PresetPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)
	if g.listErr != nil {
		return nil, g.listErr
	}
	page := &domain.PresetPage{Items: []domain.PresetSummary{}, Total: g.total}
	start := (q.Page - 1) * domain.PageSize
	for i := start; i < g.total && i < start+domain.PageSize; i++ {
		id := int64(i + 1)
		page.Items = append(page.Items, domain.PresetSummary{
			ID: id, Name: fmt.Sprintf("preset %d", id), LikeCount: g.counts[id], IsLiked: g.likes[id],
		})
	}
	return page, nil
}

func (g *fakeGateway) ToggleLike(ctx context.Context, token string, id int64) (domain.LikeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.likeN++
	if g.likeErr != nil {
		return domain.LikeResult{}, g.likeErr
	}
	g.likes[id] = !g.likes[id]
	if g.likes[id] {
		g.counts[id]++
	} else {
		g.counts[id]--
	}
	return domain.LikeResult{Liked: g.likes[id], LikeCount: g.counts[id]}, nil
}

func (g *fakeGateway) requested() []domain.ListQuery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.ListQuery(nil), g.queries...)
}

func TestSearchSortParams(t *testing.T) {
	gw := newFakeGateway(0)
	b := NewBrowser(gw, fakeSession{}, nil)
	ctx := context.Background()

	require.NoError(t, b.SetSort(ctx, "likes"))
	require.NoError(t, b.SetSearch(ctx, " cute "))

	qs := gw.requested()
	assert.Equal(t, domain.ListQuery{Page: 1, Sort: domain.SortLikes, Search: "cute"}, qs[len(qs)-1])

	v := b.View()
	assert.True(t, v.Empty, "no results shows the empty state")
	assert.Empty(t, v.Items)
	assert.False(t, v.HasNext)
	assert.False(t, v.HasPrev)
}

func TestSetSort_Invalid(t *testing.T) {
	gw := newFakeGateway(5)
	b := NewBrowser(gw, fakeSession{}, nil)

	assert.ErrorIs(t, b.SetSort(context.Background(), "oldest"), domain.ErrInvalidSort)
	assert.Empty(t, gw.requested())
}

func TestSearchAndSortResetPage(t *testing.T) {
	gw := newFakeGateway(100)
	b := NewBrowser(gw, fakeSession{}, nil)
	ctx := context.Background()

	require.NoError(t, b.Refresh(ctx))
	require.NoError(t, b.GoToPage(ctx, 4))
	assert.Equal(t, 4, b.Query().Page)

	require.NoError(t, b.SetSearch(ctx, "x"))
	assert.Equal(t, 1, b.Query().Page)

	require.NoError(t, b.GoToPage(ctx, 3))
	require.NoError(t, b.SetSort(ctx, "popular"))
	assert.Equal(t, 1, b.Query().Page)
}

func TestNavigationStaysInRange(t *testing.T) {
	for _, total := range []int{0, 1, 20, 21, 45, 100} {
		t.Run(fmt.Sprintf("total=%d", total), func(t *testing.T) {
			gw := newFakeGateway(total)
			b := NewBrowser(gw, fakeSession{}, nil)
			ctx := context.Background()

			// Before the first fetch only page 1 is reachable.
			require.NoError(t, b.NextPage(ctx))
			require.NoError(t, b.Refresh(ctx))

			last := domain.PageCount(total)
			for range last + 3 {
				require.NoError(t, b.NextPage(ctx))
			}
			require.NoError(t, b.GoToPage(ctx, 1000))
			for range last + 3 {
				require.NoError(t, b.PrevPage(ctx))
			}
			require.NoError(t, b.GoToPage(ctx, -5))

			for _, q := range gw.requested() {
				assert.GreaterOrEqual(t, q.Page, 1)
				assert.LessOrEqual(t, q.Page, max(1, last))
			}
		})
	}
}

func TestLoad_CorrectsPagePastEnd(t *testing.T) {
	gw := newFakeGateway(45)
	b := NewBrowser(gw, fakeSession{}, nil)

	require.NoError(t, b.Load(context.Background(), domain.ListQuery{Page: 9, Sort: "popular"}))
	v := b.View()
	assert.Equal(t, 3, v.Query.Page)
	assert.Len(t, v.Items, 5)
	assert.Equal(t, 3, v.PageCount)
	assert.True(t, v.HasPrev)
	assert.False(t, v.HasNext)
}

func TestLoad_RejectsUnknownSort(t *testing.T) {
	gw := newFakeGateway(45)
	b := NewBrowser(gw, fakeSession{}, nil)
	assert.ErrorIs(t, b.Load(context.Background(), domain.ListQuery{Sort: "random"}), domain.ErrInvalidSort)
	assert.Empty(t, gw.requested())
}

func TestToggleLike_TwiceRestores(t *testing.T) {
	gw := newFakeGateway(3)
	gw.counts[2] = 10
	b := NewBrowser(gw, fakeSession{token: "tok"}, nil)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))

	before := b.View().Items[1]
	_, err := b.ToggleLike(ctx, 2)
	require.NoError(t, err)
	mid := b.View().Items[1]
	assert.True(t, mid.IsLiked)
	assert.Equal(t, 11, mid.LikeCount)

	_, err = b.ToggleLike(ctx, 2)
	require.NoError(t, err)
	after := b.View().Items[1]
	assert.Equal(t, before.IsLiked, after.IsLiked)
	assert.Equal(t, before.LikeCount, after.LikeCount)
}

func TestToggleLike_RequiresLogin(t *testing.T) {
	gw := newFakeGateway(3)
	b := NewBrowser(gw, fakeSession{}, nil)
	require.NoError(t, b.Refresh(context.Background()))

	_, err := b.ToggleLike(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrLoginRequired)
	assert.Zero(t, gw.likeN, "no request without a session")
}

func TestToggleLike_FailureLeavesItem(t *testing.T) {
	gw := newFakeGateway(3)
	gw.counts[1] = 4
	b := NewBrowser(gw, fakeSession{token: "tok"}, nil)
	require.NoError(t, b.Refresh(context.Background()))

	gw.likeErr = domain.ErrTransport
	_, err := b.ToggleLike(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrTransport)
	item := b.View().Items[0]
	assert.False(t, item.IsLiked)
	assert.Equal(t, 4, item.LikeCount)
}

func TestFetchFailureKeepsPreviousPage(t *testing.T) {
	gw := newFakeGateway(30)
	b := NewBrowser(gw, fakeSession{}, nil)
	require.NoError(t, b.Refresh(context.Background()))

	gw.listErr = domain.ErrTransport
	err := b.NextPage(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)

	v := b.View()
	assert.Len(t, v.Items, 20)
	assert.Equal(t, int64(1), v.Items[0].ID)
	assert.Equal(t, 1, v.Query.Page, "the page shown is the one that loaded")
	assert.Equal(t, 2, v.Requested.Page)
	assert.True(t, v.HasNext)
	assert.False(t, v.HasPrev)
	assert.ErrorIs(t, v.Err, domain.ErrTransport)
	assert.False(t, v.Empty)

	// Retrying the same step sends a new request and recovers.
	gw.listErr = nil
	sent := len(gw.requested())
	require.NoError(t, b.NextPage(context.Background()))
	qs := gw.requested()
	require.Len(t, qs, sent+1)
	assert.Equal(t, 2, qs[sent].Page)

	v = b.View()
	assert.Equal(t, 2, v.Query.Page)
	assert.Equal(t, int64(21), v.Items[0].ID)
	assert.NoError(t, v.Err)
}

func TestLoad_ClampsToKnownTotal(t *testing.T) {
	gw := newFakeGateway(45)
	b := NewBrowser(gw, fakeSession{}, nil)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))

	require.NoError(t, b.Load(ctx, domain.ListQuery{Page: 9, Sort: "likes"}))
	qs := gw.requested()
	require.Len(t, qs, 2, "the known total bounds the page before any request")
	assert.Equal(t, 3, qs[1].Page)

	// A new search term has an unknown total; the page is corrected afterwards.
	require.NoError(t, b.Load(ctx, domain.ListQuery{Page: 9, Search: "x"}))
	qs = gw.requested()
	require.Len(t, qs, 4)
	assert.Equal(t, 9, qs[2].Page)
	assert.Equal(t, 3, qs[3].Page)
}

// blockingGateway holds every list request until released or canceled.
type blockingGateway struct {
	started chan domain.ListQuery
	release chan *domain.PresetPage
}

func (g *blockingGateway) ListPresets(ctx context.Context, _ string, q domain.ListQuery) (*domain.PresetPage, error) {
	g.started <- q
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-g.release:
		return p, nil
	}
}

func (g *blockingGateway) ToggleLike(context.Context, string, int64) (domain.LikeResult, error) {
	return domain.LikeResult{}, errors.New("unused")
}

func TestNewerFetchWins(t *testing.T) {
	gw := &blockingGateway{started: make(chan domain.ListQuery, 2), release: make(chan *domain.PresetPage)}
	b := NewBrowser(gw, fakeSession{}, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- b.SetSearch(ctx, "old") }()
	<-gw.started

	second := make(chan error, 1)
	go func() { second <- b.SetSearch(ctx, "new") }()
	<-gw.started

	// The first fetch was canceled by the second one.
	assert.ErrorIs(t, <-first, ErrSuperseded)

	gw.release <- &domain.PresetPage{Items: []domain.PresetSummary{{ID: 9, Name: "new"}}, Total: 1}
	require.NoError(t, <-second)

	v := b.View()
	assert.Equal(t, "new", v.Query.Search)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "new", v.Items[0].Name)
	assert.False(t, v.Loading)
}

func TestClose_CancelsInFlight(t *testing.T) {
	gw := &blockingGateway{started: make(chan domain.ListQuery, 1), release: make(chan *domain.PresetPage)}
	b := NewBrowser(gw, fakeSession{}, nil)

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-gw.started
	b.Close()

	assert.ErrorIs(t, <-done, context.Canceled)
}
