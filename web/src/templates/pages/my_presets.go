package pages

import (
	"fmt"

	"github.com/dustin/go-humanize"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/domain"
)

// MyPresets lists the viewer's own presets, private ones included.
func MyPresets(items []domain.OwnPreset) cmp.Node {
	if len(items) == 0 {
		return g.Section(
			g.H1(cmp.Text("My presets")),
			g.P(g.Class("notice"), cmp.Text("You have not shared any presets yet. "), g.A(g.Href("/upload"), cmp.Text("Upload one."))),
		)
	}
	return g.Section(
		g.H1(cmp.Text("My presets")),
		g.Table(
			g.THead(g.Tr(
				g.Th(cmp.Text("Name")),
				g.Th(cmp.Text("Visibility")),
				g.Th(cmp.Text("Downloads")),
				g.Th(cmp.Text("Likes")),
				g.Th(cmp.Text("Comments")),
				g.Th(cmp.Text("Created")),
			)),
			g.TBody(cmp.Map(items, func(p domain.OwnPreset) cmp.Node {
				return g.Tr(
					g.Td(g.A(g.Href(fmt.Sprintf("/presets/%d", p.ID)), cmp.Text(p.Name))),
					g.Td(visibilityToggle(p)),
					g.Td(cmp.Text(humanize.Comma(int64(p.DownloadCount)))),
					g.Td(cmp.Text(humanize.Comma(int64(p.LikeCount)))),
					g.Td(cmp.Text(humanize.Comma(int64(p.CommentCount)))),
					g.Td(cmp.If(!p.CreatedAt.IsZero(), cmp.Text(humanize.Time(p.CreatedAt.Time)))),
				)
			})),
		),
	)
}

// visibilityToggle shows the current visibility and a button that flips it.
func visibilityToggle(p domain.OwnPreset) cmp.Node {
	label, action, want := "Private", "Make public", "true"
	if p.IsPublic {
		label, action, want = "Public", "Make private", "false"
	}
	return cmp.El("form",
		cmp.Attr("method", "post"),
		cmp.Attr("action", fmt.Sprintf("/me/presets/%d/visibility", p.ID)),
		cmp.Text(label+" "),
		g.Input(g.Type("hidden"), g.Name("public"), g.Value(want)),
		g.Button(g.Type("submit"), g.Class("link"), cmp.Text(action)),
	)
}
