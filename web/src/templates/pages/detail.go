package pages

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	hx "maragu.dev/gomponents-htmx"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/web/src/templates/partials"
)

// CommentView is a comment plus whether the viewer may delete it.
type CommentView struct {
	domain.Comment
	CanDelete bool
}

// DetailData is everything the preset page renders.
type DetailData struct {
	Preset        domain.PresetDetail
	Comments      []CommentView
	Authenticated bool
	CanDelete     bool
	Asset         partials.AssetResolver
}

// PrettyLayout indents the layout payload for display. Payloads that are
// not valid JSON are shown as received.
func PrettyLayout(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Detail renders one preset with its comment thread.
func Detail(d DetailData) cmp.Node {
	p := d.Preset
	base := fmt.Sprintf("/presets/%d", p.ID)
	return g.Article(
		g.Class("preset"),
		g.H1(cmp.Text(p.Name)),
		g.P(g.Class("meta"),
			cmp.If(p.Author.AvatarURL != "", g.Img(g.Class("avatar"), g.Src(p.Author.AvatarURL), g.Alt(""))),
			cmp.Text(" by "+p.Author.Username),
			cmp.If(!p.CreatedAt.IsZero(), cmp.Text(", "+humanize.Time(p.CreatedAt.Time))),
		),
		cmp.If(p.PreviewImage != "", g.Img(g.Class("preview"), g.Src(d.Asset(p.PreviewImage)), g.Alt(p.Name))),
		cmp.If(p.Description != "", g.P(cmp.Text(p.Description))),
		g.Div(
			g.Class("actions"),
			partials.LikeButton(partials.LikeState{PresetID: p.ID, Liked: p.IsLiked, Count: p.LikeCount, Authenticated: d.Authenticated}),
			g.A(g.Class("button"), g.Href(base+"/download"), cmp.Textf("Download (%s)", humanize.Comma(int64(p.DownloadCount)))),
			cmp.If(d.CanDelete, cmp.El("form",
				cmp.Attr("method", "post"),
				cmp.Attr("action", base+"/delete"),
				cmp.Attr("onsubmit", "return confirm('Delete this preset? This cannot be undone.')"),
				hx.Confirm("Delete this preset? This cannot be undone."),
				g.Button(g.Type("submit"), g.Class("danger"), cmp.Text("Delete")),
			)),
		),
		cmp.El("details",
			cmp.El("summary", cmp.Text("Layout")),
			g.Pre(g.Code(cmp.Text(PrettyLayout(p.Layout)))),
		),
		commentThread(base, d),
	)
}

func commentThread(base string, d DetailData) cmp.Node {
	return g.Section(
		g.ID("comments"),
		g.H2(cmp.Textf("Comments (%d)", len(d.Comments))),
		cmp.If(len(d.Comments) == 0, g.P(g.Class("notice"), cmp.Text("No comments yet."))),
		g.Ul(cmp.Map(d.Comments, func(c CommentView) cmp.Node {
			return g.Li(
				g.Strong(cmp.Text(c.Author.Username)),
				cmp.If(!c.CreatedAt.IsZero(), g.Span(g.Class("meta"), cmp.Text(" "+humanize.Time(c.CreatedAt.Time)))),
				g.P(cmp.Text(c.Content)),
				cmp.If(c.CanDelete, cmp.El("form",
					cmp.Attr("method", "post"),
					cmp.Attr("action", fmt.Sprintf("%s/comments/%d/delete", base, c.ID)),
					g.Button(g.Type("submit"), g.Class("link"), cmp.Text("Delete")),
				)),
			)
		})),
		commentForm(base, d.Authenticated),
	)
}

func commentForm(base string, authenticated bool) cmp.Node {
	if !authenticated {
		return g.P(g.A(g.Href("/auth/login"), cmp.Text("Log in")), cmp.Text(" to leave a comment."))
	}
	return cmp.El("form",
		cmp.Attr("method", "post"),
		cmp.Attr("action", base+"/comments"),
		g.Textarea(g.Name("content"), g.Rows("3"), g.Required(), g.Placeholder("Write a comment")),
		g.Button(g.Type("submit"), cmp.Text("Post comment")),
	)
}
