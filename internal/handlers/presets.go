package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/detail"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
	"github.com/nfrund/presetmarket/web/src/templates/partials"
)

// PresetHandler serves a single preset and the actions on it.
type PresetHandler struct {
	gw       detail.Gateway
	asset    partials.AssetResolver
	renderer rendering.Renderer
}

// NewPresetHandler creates a new PresetHandler.
func NewPresetHandler(gw detail.Gateway, asset partials.AssetResolver, r rendering.Renderer) *PresetHandler {
	return &PresetHandler{gw: gw, asset: asset, renderer: r}
}

func presetURL(id int64) string {
	return fmt.Sprintf("/presets/%d", id)
}

// page builds the view model for the :id route parameter.
func (h *PresetHandler) page(c echo.Context) (*detail.Page, int64, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, 0, err
	}
	logger := middleware.FromContext(c.Request().Context())
	return detail.NewPage(id, h.gw, currentViewer(c), logger), id, nil
}

// Show renders the preset with its comments (GET /presets/:id).
func (h *PresetHandler) Show(c echo.Context) error {
	p, _, err := h.page(c)
	if err != nil {
		return err
	}
	if err := p.Load(c.Request().Context()); err != nil {
		return renderError(c, h.renderer, err)
	}

	preset := p.Preset()
	comments := p.Comments()
	views := make([]pages.CommentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, pages.CommentView{Comment: cm, CanDelete: p.CanDeleteComment(cm)})
	}
	data := pages.DetailData{
		Preset:        *preset,
		Comments:      views,
		Authenticated: currentViewer(c).IsAuthenticated(),
		CanDelete:     p.CanDelete(),
		Asset:         h.asset,
	}
	return renderPage(c, h.renderer, http.StatusOK, preset.Name, pages.Detail(data))
}

// Like toggles the viewer's like (POST /presets/:id/like). htmx requests get
// the updated button back; plain form posts are redirected to where they
// came from.
func (h *PresetHandler) Like(c echo.Context) error {
	p, id, err := h.page(c)
	if err != nil {
		return err
	}
	res, err := p.ToggleLike(c.Request().Context())
	if err != nil {
		view.SetFlashError(c, userMessage(err))
		if isHTMX(c) {
			return hxRedirect(c, backTarget(c, presetURL(id)))
		}
		return backTo(c, presetURL(id))
	}

	if isHTMX(c) {
		button := partials.LikeButton(partials.LikeState{
			PresetID:      id,
			Liked:         res.Liked,
			Count:         res.LikeCount,
			Authenticated: true,
		})
		body, err := h.renderer.RenderComponent(c.Request().Context(), button)
		if err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, body)
	}
	return backTo(c, presetURL(id))
}

// Comment posts a comment (POST /presets/:id/comments).
func (h *PresetHandler) Comment(c echo.Context) error {
	p, id, err := h.page(c)
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment")
	}
	if err := c.Validate(&req); err != nil {
		view.SetFlashError(c, "Comment is too long.")
		return c.Redirect(http.StatusSeeOther, presetURL(id))
	}
	if err := p.AddComment(c.Request().Context(), req.Content); err != nil {
		view.SetFlashError(c, userMessage(err))
	}
	return c.Redirect(http.StatusSeeOther, presetURL(id)+"#comments")
}

// DeleteComment removes one of the viewer's comments
// (POST /presets/:id/comments/:commentID/delete).
func (h *PresetHandler) DeleteComment(c echo.Context) error {
	p, id, err := h.page(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "commentID")
	if err != nil {
		return err
	}
	if err := p.DeleteComment(c.Request().Context(), commentID); err != nil {
		view.SetFlashError(c, userMessage(err))
	} else {
		view.SetFlashSuccess(c, "Comment deleted.")
	}
	return c.Redirect(http.StatusSeeOther, presetURL(id)+"#comments")
}

// Delete removes the preset (POST /presets/:id/delete). Ownership is
// checked against a fresh copy of the preset first.
func (h *PresetHandler) Delete(c echo.Context) error {
	p, id, err := h.page(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := p.Load(ctx); err != nil {
		view.SetFlashError(c, userMessage(err))
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := p.Delete(ctx); err != nil {
		view.SetFlashError(c, userMessage(err))
		return c.Redirect(http.StatusSeeOther, presetURL(id))
	}
	middleware.FromContext(ctx).Info("Preset deleted", "preset_id", id)
	view.SetFlashSuccess(c, "Preset deleted.")
	return c.Redirect(http.StatusSeeOther, "/")
}

// Download sends the preset file as an attachment (GET /presets/:id/download).
// When the backend stored the file itself the viewer is told where.
func (h *PresetHandler) Download(c echo.Context) error {
	p, id, err := h.page(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := p.Load(ctx); err != nil {
		return renderError(c, h.renderer, err)
	}
	dl, err := p.Download(ctx)
	if err != nil {
		view.SetFlashError(c, userMessage(err))
		return c.Redirect(http.StatusSeeOther, presetURL(id))
	}
	if dl.SavedPath != "" {
		view.SetFlashSuccess(c, "Preset saved to "+dl.SavedPath)
		return c.Redirect(http.StatusSeeOther, presetURL(id))
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", strings.ToValidUTF8(dl.Filename, "_"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, dl.Payload)
}
