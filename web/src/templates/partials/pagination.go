package partials

import (
	"fmt"
	"net/url"
	"strconv"

	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/domain"
)

// CatalogURL builds the catalog link for q.
func CatalogURL(q domain.ListQuery) string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" && q.Sort != domain.SortLatest {
		v.Set("sort", string(q.Sort))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// Pagination renders previous/next links. Links only point at pages that
// exist.
func Pagination(q domain.ListQuery, pageCount int) cmp.Node {
	if pageCount <= 1 {
		return nil
	}
	prev, next := q, q
	prev.Page--
	next.Page++
	return g.Nav(
		g.Class("pagination"),
		cmp.If(q.Page > 1, g.A(g.Href(CatalogURL(prev)), g.Rel("prev"), cmp.Text("← Previous"))),
		g.Span(cmp.Text(fmt.Sprintf("Page %d of %d", q.Page, pageCount))),
		cmp.If(q.Page < pageCount, g.A(g.Href(CatalogURL(next)), g.Rel("next"), cmp.Text("Next →"))),
	)
}
