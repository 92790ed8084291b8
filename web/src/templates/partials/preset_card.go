package partials

import (
	"fmt"

	"github.com/dustin/go-humanize"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/domain"
)

// AssetResolver turns a backend asset reference into a browser URL.
type AssetResolver func(ref string) string

// PresetCard renders one catalog entry.
func PresetCard(p domain.PresetSummary, asset AssetResolver, authenticated bool) cmp.Node {
	href := fmt.Sprintf("/presets/%d", p.ID)
	return g.Article(
		g.Class("card"),
		cmp.If(p.PreviewImage != "", g.A(g.Href(href),
			g.Img(g.Class("preview"), g.Src(asset(p.PreviewImage)), g.Alt(p.Name), cmp.Attr("loading", "lazy")),
		)),
		g.H3(g.A(g.Href(href), cmp.Text(p.Name))),
		cmp.If(p.Description != "", g.P(cmp.Text(p.Description))),
		g.Div(
			g.Class("meta"),
			g.Span(cmp.Text("by "+p.Author.Username)),
			g.Span(cmp.Text(humanize.Comma(int64(p.DownloadCount))+" downloads")),
			g.Span(cmp.Text(humanize.Comma(int64(p.CommentCount))+" comments")),
			cmp.If(!p.CreatedAt.IsZero(), g.Span(cmp.Text(humanize.Time(p.CreatedAt.Time)))),
		),
		LikeButton(LikeState{PresetID: p.ID, Liked: p.IsLiked, Count: p.LikeCount, Authenticated: authenticated}),
	)
}
