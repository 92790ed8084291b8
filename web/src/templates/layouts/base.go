package layouts

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/partials"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// Page carries what every page shows around its content.
type Page struct {
	Title   string
	Profile *domain.Profile
	Flashes view.FlashData
}

// Base wraps content in the document shell with the navigation bar.
func Base(p Page, content cmp.Node) cmp.Node {
	return g.Doctype(
		g.HTML(
			g.Lang("en"),
			g.Head(
				g.Meta(g.Charset("utf-8")),
				g.Meta(g.Name("viewport"), g.Content("width=device-width, initial-scale=1")),
				cmp.El("title", cmp.Text(CalculateTitle(p.Title))),
				g.Link(g.Rel("stylesheet"), g.Href("/static/css/app.css")),
				g.Script(g.Src(htmxScript), g.Defer()),
			),
			g.Body(
				header(p.Profile),
				g.Main(
					partials.Flash(p.Flashes),
					content,
				),
			),
		),
	)
}

func header(profile *domain.Profile) cmp.Node {
	return g.Header(
		g.Class("site"),
		g.A(g.Href("/"), g.Strong(cmp.Text("Preset Market"))),
		g.Nav(
			g.A(g.Href("/"), cmp.Text("Browse")),
			cmp.If(profile != nil, cmp.Group{
				g.A(g.Href("/upload"), cmp.Text("Upload")),
				g.A(g.Href("/me/presets"), cmp.Text("My presets")),
			}),
			account(profile),
		),
	)
}

func account(profile *domain.Profile) cmp.Node {
	if profile == nil {
		return g.A(g.Href("/auth/login"), g.Class("login"), cmp.Text("Log in with GitHub"))
	}
	return g.Span(
		cmp.If(profile.AvatarURL != "", g.Img(g.Class("avatar"), g.Src(profile.AvatarURL), g.Alt(""))),
		cmp.Text(" "+profile.Username+" "),
		cmp.El("form",
			cmp.Attr("method", "post"),
			cmp.Attr("action", "/auth/logout"),
			cmp.Attr("style", "display:inline"),
			g.Button(g.Type("submit"), cmp.Text("Log out")),
		),
	)
}
