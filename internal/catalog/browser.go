// Package catalog is the view model of the paginated preset catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/nfrund/presetmarket/internal/domain"
)

// ErrSuperseded is returned by a fetch whose response arrived after a newer
// fetch was issued. Its result was discarded.
var ErrSuperseded = errors.New("catalog fetch superseded")

// Gateway is the part of the backend client the catalog uses.
type Gateway interface {
	ListPresets(ctx context.Context, token string, q domain.ListQuery) (*domain.PresetPage, error)
	ToggleLike(ctx context.Context, token string, id int64) (domain.LikeResult, error)
}

// Session exposes the viewer's authentication state.
type Session interface {
	IsAuthenticated() bool
	Token() string
}

// View is a snapshot of the catalog for rendering.
type View struct {
	// Query produced Items. Requested is the newest request, which differs
	// from Query while it is in flight or after it failed.
	Query     domain.ListQuery
	Requested domain.ListQuery
	Items     []domain.PresetSummary
	Total     int
	PageCount int
	// Empty is set once a fetch succeeded with no results.
	Empty   bool
	Loading bool
	Err     error
	HasPrev bool
	HasNext bool
}

// Browser holds one page of the catalog and the query that produced it.
// Only the newest fetch may update it: starting a fetch cancels the one in
// flight and a response older than the latest request is discarded. A
// failed fetch keeps the previous page and its query.
type Browser struct {
	gw      Gateway
	session Session
	logger  *slog.Logger

	mu        sync.Mutex
	query     domain.ListQuery
	requested domain.ListQuery
	items   []domain.PresetSummary
	total   int
	loaded  bool
	loading bool
	err     error
	seq     uint64
	cancel  context.CancelFunc
}

// NewBrowser starts on page 1, newest first, without a search term.
func NewBrowser(gw Gateway, session Session, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	start := domain.ListQuery{Page: 1, Sort: domain.SortLatest}
	return &Browser{
		gw:        gw,
		session:   session,
		logger:    logger,
		query:     start,
		requested: start,
	}
}

// Load fetches the page described by q, as for a deep link. When the total
// for q's search term is already known the page is clamped to it before the
// request. Otherwise the total is unknown, so a page past the end is sent
// once and then corrected to the last page with a second fetch; the page
// bound of the navigation methods does not apply to that first request.
func (b *Browser) Load(ctx context.Context, q domain.ListQuery) error {
	sort, err := domain.ParseSort(string(q.Sort))
	if err != nil {
		return err
	}
	q.Sort = sort
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	b.mu.Lock()
	if b.loaded && b.err == nil && b.query.Search == q.Search {
		q.Page = domain.ClampPage(q.Page, b.total)
	}
	b.mu.Unlock()
	if err := b.fetch(ctx, q); err != nil {
		return err
	}

	b.mu.Lock()
	last := domain.PageCount(b.total)
	corrected := b.query
	b.mu.Unlock()
	if last > 0 && corrected.Page > last {
		corrected.Page = last
		return b.fetch(ctx, corrected)
	}
	return nil
}

// Refresh refetches the current query.
func (b *Browser) Refresh(ctx context.Context) error {
	return b.fetch(ctx, b.Query())
}

// SetSearch filters by term and goes back to page 1.
func (b *Browser) SetSearch(ctx context.Context, term string) error {
	q := b.Query()
	q.Search = strings.TrimSpace(term)
	q.Page = 1
	return b.fetch(ctx, q)
}

// SetSort changes the ordering and goes back to page 1. An unknown key is
// rejected without a request.
func (b *Browser) SetSort(ctx context.Context, key string) error {
	sort, err := domain.ParseSort(key)
	if err != nil {
		return err
	}
	q := b.Query()
	q.Sort = sort
	q.Page = 1
	return b.fetch(ctx, q)
}

// NextPage moves forward one page. At the last page it does nothing.
func (b *Browser) NextPage(ctx context.Context) error {
	return b.GoToPage(ctx, b.Query().Page+1)
}

// PrevPage moves back one page. At page 1 it does nothing.
func (b *Browser) PrevPage(ctx context.Context) error {
	return b.GoToPage(ctx, b.Query().Page-1)
}

// GoToPage jumps to page n. Pages outside 1..PageCount(total) are never
// requested; before the first successful fetch only page 1 is reachable.
func (b *Browser) GoToPage(ctx context.Context, n int) error {
	b.mu.Lock()
	q := b.query
	if b.loading {
		q = b.requested
	}
	total := b.total
	if !b.loaded {
		total = 0
	}
	b.mu.Unlock()

	target := domain.ClampPage(n, total)
	if target == q.Page && n != q.Page {
		return nil
	}
	q.Page = target
	return b.fetch(ctx, q)
}

// ToggleLike flips the viewer's like on item id. Anonymous viewers get
// domain.ErrLoginRequired without a request. On success the item's like
// flag and count are replaced by the backend's answer; on failure the item
// is left untouched.
func (b *Browser) ToggleLike(ctx context.Context, id int64) (domain.LikeResult, error) {
	if !b.session.IsAuthenticated() {
		return domain.LikeResult{}, domain.ErrLoginRequired
	}
	res, err := b.gw.ToggleLike(ctx, b.session.Token(), id)
	if err != nil {
		b.logger.WarnContext(ctx, "Like toggle failed", "preset_id", id, "error", err)
		return domain.LikeResult{}, err
	}

	b.mu.Lock()
	if i := slices.IndexFunc(b.items, func(p domain.PresetSummary) bool { return p.ID == id }); i >= 0 {
		b.items[i].ApplyLike(res)
	}
	b.mu.Unlock()
	return res, nil
}

// Query returns the query navigation builds on: the one in flight, or the
// one that produced the current page.
func (b *Browser) Query() domain.ListQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loading {
		return b.requested
	}
	return b.query
}

// View returns a snapshot for rendering.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	pages := domain.PageCount(b.total)
	return View{
		Query:     b.query,
		Requested: b.requested,
		Items:     slices.Clone(b.items),
		Total:     b.total,
		PageCount: pages,
		Empty:     b.loaded && b.err == nil && len(b.items) == 0,
		Loading:   b.loading,
		Err:       b.err,
		HasPrev:   b.query.Page > 1,
		HasNext:   b.loaded && b.query.Page < pages,
	}
}

// Close cancels a fetch in flight.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Browser) fetch(ctx context.Context, q domain.ListQuery) error {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	if b.cancel != nil {
		b.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.requested = q
	b.loading = true
	b.mu.Unlock()

	page, err := b.gw.ListPresets(fetchCtx, b.session.Token(), q)

	b.mu.Lock()
	defer b.mu.Unlock()
	cancel()
	if seq != b.seq {
		return ErrSuperseded
	}
	b.cancel = nil
	b.loading = false
	if err != nil {
		b.err = err
		b.logger.WarnContext(ctx, "Catalog fetch failed",
			"page", q.Page, "sort", string(q.Sort), "search", q.Search, "error", err)
		return fmt.Errorf("load catalog: %w", err)
	}
	b.query = q
	b.items = page.Items
	b.total = page.Total
	b.loaded = true
	b.err = nil
	return nil
}
