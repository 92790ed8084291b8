package handlers

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/upload"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
)

const (
	uploadSessionName = "upload-session"
	uploadDraftKey    = "draft"
)

// UploadHandler serves the two-step upload form. The draft lives in the
// draft store between the steps; the session cookie only carries its id.
type UploadHandler struct {
	creator     upload.Creator
	drafts      *upload.DraftStore
	maxFileSize int64
	renderer    rendering.Renderer
}

// NewUploadHandler creates a new UploadHandler. Files larger than
// maxFileSize bytes are rejected.
func NewUploadHandler(creator upload.Creator, drafts *upload.DraftStore, maxFileSize int64, r rendering.Renderer) *UploadHandler {
	return &UploadHandler{creator: creator, drafts: drafts, maxFileSize: maxFileSize, renderer: r}
}

// currentDraft loads the viewer's draft, or starts a new one.
func (h *UploadHandler) currentDraft(c echo.Context) *upload.Draft {
	sess, _ := echosession.Get(uploadSessionName, c)
	if sess == nil {
		return upload.NewDraft()
	}
	id, _ := sess.Values[uploadDraftKey].(string)
	if id == "" {
		return upload.NewDraft()
	}
	ctx := c.Request().Context()
	d, err := h.drafts.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, upload.ErrDraftNotFound) {
			middleware.FromContext(ctx).Warn("Failed to load upload draft", "draft_id", id, "error", err)
		}
		return upload.NewDraft()
	}
	return d
}

func (h *UploadHandler) saveDraft(c echo.Context, d *upload.Draft) error {
	if err := h.drafts.Save(c.Request().Context(), d); err != nil {
		return err
	}
	sess, err := echosession.Get(uploadSessionName, c)
	if sess == nil {
		return err
	}
	sess.Values[uploadDraftKey] = d.ID
	return sess.Save(c.Request(), c.Response())
}

func (h *UploadHandler) discardDraft(c echo.Context, d *upload.Draft) {
	ctx := c.Request().Context()
	if err := h.drafts.Delete(ctx, d.ID); err != nil && !errors.Is(err, upload.ErrDraftNotFound) {
		middleware.FromContext(ctx).Warn("Failed to delete upload draft", "draft_id", d.ID, "error", err)
	}
	if sess, _ := echosession.Get(uploadSessionName, c); sess != nil {
		delete(sess.Values, uploadDraftKey)
		_ = sess.Save(c.Request(), c.Response())
	}
}

// Show renders the form (GET /upload). Anonymous viewers get a login prompt.
func (h *UploadHandler) Show(c echo.Context) error {
	if !currentViewer(c).IsAuthenticated() {
		return renderPage(c, h.renderer, http.StatusOK, "Upload", pages.LoginPrompt("upload presets"))
	}
	data := pages.UploadData{
		Draft:       h.currentDraft(c),
		MaxFileSize: humanize.IBytes(uint64(h.maxFileSize)),
	}
	return renderPage(c, h.renderer, http.StatusOK, "Upload", pages.Upload(data))
}

// File reads the chosen preset file into the draft (POST /upload/file).
func (h *UploadHandler) File(c echo.Context) error {
	d := h.currentDraft(c)
	fh, err := c.FormFile("file")
	switch {
	case err != nil:
		d.Error = "Please choose a preset file first."
	case fh.Size > h.maxFileSize:
		d.Error = "The file is larger than " + humanize.IBytes(uint64(h.maxFileSize)) + "."
	default:
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		if err := d.LoadFile(f); err == nil {
			d.FileName = fh.Filename
		}
	}
	if err := h.saveDraft(c, d); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/upload")
}

// Submit publishes the draft (POST /upload).
func (h *UploadHandler) Submit(c echo.Context) error {
	var req UploadDetailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	d := h.currentDraft(c)
	d.Name = req.Name
	d.Description = req.Description
	d.IsPublic = req.IsPublic
	if err := c.Validate(&req); err != nil {
		d.Error = "Name or description is too long."
		if err := h.saveDraft(c, d); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/upload")
	}

	ctx := c.Request().Context()
	created, err := d.Submit(ctx, h.creator, currentViewer(c).Token())
	if err != nil {
		middleware.FromContext(ctx).Warn("Upload rejected", "error", err)
		if err := h.saveDraft(c, d); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/upload")
	}

	h.discardDraft(c, d)
	middleware.FromContext(ctx).Info("Preset published", "preset_id", created.ID)
	view.SetFlashSuccess(c, "Preset \""+created.Name+"\" published.")
	return c.Redirect(http.StatusSeeOther, presetURL(created.ID))
}
