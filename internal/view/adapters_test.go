package view_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
)

type ctxKey struct{}

func TestAdaptTemplToGomponentCtx(t *testing.T) {
	comp := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		v, _ := ctx.Value(ctxKey{}).(string)
		_, err := io.WriteString(w, "<b>"+v+"</b>")
		return err
	})
	ctx := context.WithValue(context.Background(), ctxKey{}, "req")

	var buf bytes.Buffer
	node := g.El("p", view.AdaptTemplToGomponentCtx(ctx, comp))
	require.NoError(t, node.Render(&buf))
	assert.Equal(t, "<p><b>req</b></p>", buf.String())

	buf.Reset()
	require.NoError(t, (&view.TemplToGomponentAdapter{Component: comp}).Render(&buf))
	assert.Equal(t, "<b></b>", buf.String(), "a missing context renders with Background")
}
