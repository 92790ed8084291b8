package pages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	cmp "maragu.dev/gomponents"

	"github.com/nfrund/presetmarket/internal/view"
)

// errorPanel is a plain templ component so the error page renders even
// when the page's own data failed to load.
func errorPanel(status int, message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<section class="error-page"><h1>%d %s</h1><p>%s</p><p><a href="/">Back to the catalog</a></p></section>`,
			status, templ.EscapeString(http.StatusText(status)), templ.EscapeString(message))
		return err
	})
}

// Error renders the body of an error page.
func Error(ctx context.Context, status int, message string) cmp.Node {
	return view.AdaptTemplToGomponentCtx(ctx, errorPanel(status, message))
}
