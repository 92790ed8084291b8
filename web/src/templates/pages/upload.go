package pages

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/presetmarket/internal/upload"
)

// UploadData is everything the upload form renders.
type UploadData struct {
	Draft *upload.Draft
	// MaxFileSize is advertised next to the file picker.
	MaxFileSize string
}

// Upload renders the two-step upload form: pick a preset file, then fill in
// the details and publish.
func Upload(d UploadData) cmp.Node {
	draft := d.Draft
	if draft == nil {
		draft = upload.NewDraft()
	}
	hasLayout := len(draft.Layout) > 0
	return g.Section(
		g.ID("upload"),
		g.H1(cmp.Text("Share a preset")),
		cmp.If(draft.Error != "", g.P(g.Class("notice error"), g.Role("alert"), cmp.Text(draft.Error))),
		cmp.El("form",
			cmp.Attr("method", "post"),
			cmp.Attr("action", "/upload/file"),
			cmp.Attr("enctype", "multipart/form-data"),
			cmp.El("label",
				cmp.Text("Preset file "),
				g.Input(g.Type("file"), g.Name("file"), g.Accept(".json,application/json"), g.Required()),
			),
			cmp.If(d.MaxFileSize != "", g.Small(cmp.Text(" up to "+d.MaxFileSize))),
			cmp.If(draft.FileName != "", g.P(g.Class("meta"), cmp.Text("Loaded "+draft.FileName))),
			g.Button(g.Type("submit"), cmp.Text("Load file")),
		),
		cmp.El("form",
			cmp.Attr("method", "post"),
			cmp.Attr("action", "/upload"),
			cmp.El("label", cmp.Text("Name"),
				g.Input(g.Type("text"), g.Name("name"), g.Value(draft.Name), g.MaxLength("200"), g.Required()),
			),
			cmp.El("label", cmp.Text("Description"),
				g.Textarea(g.Name("description"), g.Rows("4"), g.MaxLength("2000"), cmp.Text(draft.Description)),
			),
			cmp.El("label",
				g.Input(g.Type("checkbox"), g.Name("is_public"), g.Value("true"), cmp.If(draft.IsPublic, g.Checked())),
				cmp.Text(" Public"),
			),
			g.Button(g.Type("submit"), cmp.If(!hasLayout, g.Disabled()), cmp.Text("Publish")),
		),
	)
}

// LoginPrompt is shown in place of forms that need a session.
func LoginPrompt(action string) cmp.Node {
	return g.Section(
		g.Class("login-prompt"),
		g.P(cmp.Text("You need to log in to "+action+".")),
		g.A(g.Class("button"), g.Href("/auth/login"), cmp.Text("Log in with GitHub")),
	)
}
