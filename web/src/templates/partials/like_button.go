package partials

import (
	"fmt"

	"github.com/dustin/go-humanize"
	hx "maragu.dev/gomponents-htmx"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// LikeState is what the like button shows.
type LikeState struct {
	PresetID      int64
	Liked         bool
	Count         int
	Authenticated bool
}

// LikeButtonID is the DOM id of a preset's like button.
func LikeButtonID(presetID int64) string {
	return fmt.Sprintf("like-%d", presetID)
}

// LikeButton renders the like toggle. With htmx it swaps itself with the
// server's answer; without it the form posts and redirects back. Anonymous
// viewers get a login prompt instead.
func LikeButton(s LikeState) cmp.Node {
	label := "♡ " + humanize.Comma(int64(s.Count))
	if s.Liked {
		label = "♥ " + humanize.Comma(int64(s.Count))
	}
	if !s.Authenticated {
		return g.A(
			g.ID(LikeButtonID(s.PresetID)),
			g.Class("like"),
			g.Href("/auth/login"),
			g.Title("Log in to like presets"),
			cmp.Text(label),
		)
	}

	action := fmt.Sprintf("/presets/%d/like", s.PresetID)
	return cmp.El("form",
		g.ID(LikeButtonID(s.PresetID)),
		cmp.Attr("method", "post"),
		cmp.Attr("action", action),
		cmp.Attr("style", "display:inline"),
		hx.Post(action),
		hx.Swap("outerHTML"),
		g.Button(
			g.Type("submit"),
			g.Class(likeClass(s.Liked)),
			cmp.Attr("aria-pressed", fmt.Sprint(s.Liked)),
			cmp.Text(label),
		),
	)
}

func likeClass(liked bool) string {
	if liked {
		return "like liked"
	}
	return "like"
}
