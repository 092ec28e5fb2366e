package dependencies

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the dependency edge routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/dependencies", h.Add)
	e.DELETE("/dependencies", h.Remove)
}
