package partials

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/view"
)

// Flash renders pending success and error notices.
func Flash(f view.FlashData) cmp.Node {
	if f.Empty() {
		return nil
	}
	return g.Div(
		g.ID("flash"),
		cmp.Map(f.Success, func(msg string) cmp.Node {
			return g.Div(g.Class("flash success"), g.Role("status"), cmp.Text(msg))
		}),
		cmp.Map(f.Error, func(msg string) cmp.Node {
			return g.Div(g.Class("flash error"), g.Role("alert"), cmp.Text(msg))
		}),
	)
}
