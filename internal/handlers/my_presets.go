package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/view"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
)

// OwnPresetGateway lists and changes the presets of the token's owner.
type OwnPresetGateway interface {
	MyPresets(ctx context.Context, token string) ([]domain.OwnPreset, error)
	UpdatePreset(ctx context.Context, token string, id int64, u domain.PresetUpdate) error
}

// MyPresetsHandler serves the viewer's own presets.
type MyPresetsHandler struct {
	gw       OwnPresetGateway
	renderer rendering.Renderer
}

// NewMyPresetsHandler creates a new MyPresetsHandler.
func NewMyPresetsHandler(gw OwnPresetGateway, r rendering.Renderer) *MyPresetsHandler {
	return &MyPresetsHandler{gw: gw, renderer: r}
}

// List renders GET /me/presets.
func (h *MyPresetsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.gw.MyPresets(ctx, currentViewer(c).Token())
	if err != nil {
		middleware.FromContext(ctx).Warn("Failed to list own presets", "error", err)
		return renderError(c, h.renderer, err)
	}
	return renderPage(c, h.renderer, http.StatusOK, "My presets", pages.MyPresets(items))
}

// SetVisibility publishes or hides one of the viewer's presets
// (POST /me/presets/:id/visibility). The form sends the wanted state.
func (h *MyPresetsHandler) SetVisibility(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req VisibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visibility")
	}

	ctx := c.Request().Context()
	public := req.Public
	if err := h.gw.UpdatePreset(ctx, currentViewer(c).Token(), id, domain.PresetUpdate{IsPublic: &public}); err != nil {
		middleware.FromContext(ctx).Warn("Failed to change visibility", "preset_id", id, "error", err)
		view.SetFlashError(c, userMessage(err))
	} else if public {
		view.SetFlashSuccess(c, "The preset is now public.")
	} else {
		view.SetFlashSuccess(c, "The preset is now private.")
	}
	return c.Redirect(http.StatusSeeOther, "/me/presets")
}
