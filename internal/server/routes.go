package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/presetmarket/internal/handlers"
	"github.com/nfrund/presetmarket/internal/middleware"
)

type routeHandlers struct {
	auth      *handlers.AuthHandler
	catalog   *handlers.CatalogHandler
	presets   *handlers.PresetHandler
	upload    *handlers.UploadHandler
	myPresets *handlers.MyPresetsHandler
}

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes(h routeHandlers) {
	rateLimiter := middleware.RateLimiter(30, 10)
	// Multipart framing adds a little on top of the file itself.
	bodyLimit := echomw.BodyLimit(formatBytes(s.Cfg.GetMaxPresetFileSize() + 64<<10))

	s.E.GET("/", h.catalog.List)

	auth := s.E.Group("/auth")
	auth.GET("/login", h.auth.Login)
	auth.GET("/callback", h.auth.Callback, rateLimiter)
	auth.POST("/logout", h.auth.Logout)

	presets := s.E.Group("/presets/:id")
	presets.GET("", h.presets.Show)
	presets.GET("/download", h.presets.Download)
	presets.POST("/like", h.presets.Like, rateLimiter)
	presets.POST("/comments", h.presets.Comment, rateLimiter)
	presets.POST("/comments/:commentID/delete", h.presets.DeleteComment)
	presets.POST("/delete", h.presets.Delete)

	s.E.GET("/upload", h.upload.Show)
	s.E.POST("/upload/file", h.upload.File, middleware.RequireLogin, bodyLimit)
	s.E.POST("/upload", h.upload.Submit, middleware.RequireLogin, rateLimiter)

	s.E.GET("/me/presets", h.myPresets.List, middleware.RequireLogin)
	s.E.POST("/me/presets/:id/visibility", h.myPresets.SetVisibility, middleware.RequireLogin)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// formatBytes renders n as a BodyLimit size, rounded up to whole KiB.
func formatBytes(n int64) string {
	return fmt.Sprintf("%dK", (n+1023)/1024)
}
