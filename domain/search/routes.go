package search

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the search routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/search", h.Search)
}
