package actions

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the action hierarchy routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/actions", h.Create)
	e.GET("/actions", h.List)
	e.GET("/actions/:id", h.Get)
	e.PATCH("/actions/:id", h.Update)
	e.DELETE("/actions/:id", h.Delete)
	e.PUT("/actions/:id/summary", h.SetSummary)
	e.PUT("/actions/:id/parent", h.Move)
	e.POST("/actions/:id/children", h.CreateChild)
}
