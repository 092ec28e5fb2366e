package relationships

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the traversal routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/actions/:id/context", h.Context)
	e.GET("/actions/:id/tree", h.Tree)
	e.GET("/tree", h.Forest)
}
