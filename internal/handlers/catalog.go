package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/catalog"
	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/web/src/templates/pages"
	"github.com/nfrund/presetmarket/web/src/templates/partials"
)

// CatalogHandler serves the preset listing.
type CatalogHandler struct {
	gw       catalog.Gateway
	asset    partials.AssetResolver
	renderer rendering.Renderer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(gw catalog.Gateway, asset partials.AssetResolver, r rendering.Renderer) *CatalogHandler {
	return &CatalogHandler{gw: gw, asset: asset, renderer: r}
}

// List renders one page of the catalog (GET /).
func (h *CatalogHandler) List(c echo.Context) error {
	var req CatalogRequest
	if err := c.Bind(&req); err != nil {
		req = CatalogRequest{}
	}
	if err := c.Validate(&req); err != nil {
		// A hand-edited query falls back to the first page, newest first.
		req = CatalogRequest{Search: req.Search}
	}

	ctx := c.Request().Context()
	v := currentViewer(c)
	browser := catalog.NewBrowser(h.gw, v, middleware.FromContext(ctx))
	defer browser.Close()

	q := domain.ListQuery{Page: req.Page, Sort: domain.Sort(req.Sort), Search: req.Search}
	data := pages.CatalogData{Authenticated: v.IsAuthenticated(), Asset: h.asset}
	if err := browser.Load(ctx, q); err != nil && !errors.Is(err, catalog.ErrSuperseded) {
		middleware.FromContext(ctx).Warn("Failed to load catalog", "error", err)
		data.ErrorMessage = userMessage(err)
	}
	data.View = browser.View()
	return renderPage(c, h.renderer, http.StatusOK, "Browse", pages.Catalog(data))
}
