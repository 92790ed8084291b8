package pages

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/catalog"
	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/web/src/templates/partials"
)

var titleCaser = cases.Title(language.English)

// SortLabel is the display name of a sort key.
func SortLabel(s domain.Sort) string {
	return titleCaser.String(string(s))
}

// CatalogData is everything the catalog page renders.
type CatalogData struct {
	View          catalog.View
	Authenticated bool
	Asset         partials.AssetResolver
	// ErrorMessage replaces the listing when the fetch failed.
	ErrorMessage string
}

// Catalog renders the searchable preset listing.
func Catalog(d CatalogData) cmp.Node {
	return g.Section(
		g.ID("catalog"),
		g.H1(cmp.Text("Presets")),
		searchForm(d.View.Requested),
		catalogBody(d),
	)
}

func searchForm(q domain.ListQuery) cmp.Node {
	return cmp.El("form",
		g.Class("search"),
		cmp.Attr("method", "get"),
		cmp.Attr("action", "/"),
		g.Input(g.Type("search"), g.Name("search"), g.Value(q.Search), g.Placeholder("Search presets")),
		g.Select(
			g.Name("sort"),
			cmp.Attr("aria-label", "Sort"),
			cmp.Map(domain.Sorts, func(s domain.Sort) cmp.Node {
				return g.Option(g.Value(string(s)), cmp.If(s == q.Sort, g.Selected()), cmp.Text(SortLabel(s)))
			}),
		),
		g.Button(g.Type("submit"), cmp.Text("Search")),
	)
}

func catalogBody(d CatalogData) cmp.Node {
	if d.ErrorMessage != "" {
		return g.P(g.Class("notice error"), g.Role("alert"), cmp.Text(d.ErrorMessage))
	}
	if d.View.Empty {
		if d.View.Query.Search != "" {
			return g.P(g.Class("notice"), cmp.Textf("No presets match %q.", d.View.Query.Search))
		}
		return g.P(g.Class("notice"), cmp.Text("No presets have been shared yet."))
	}
	return cmp.Group{
		g.P(g.Class("count"), cmp.Textf("%d presets", d.View.Total)),
		g.Div(
			g.Class("grid"),
			cmp.Map(d.View.Items, func(p domain.PresetSummary) cmp.Node {
				return partials.PresetCard(p, d.Asset, d.Authenticated)
			}),
		),
		partials.Pagination(d.View.Query, d.View.PageCount),
	}
}
