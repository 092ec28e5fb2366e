package search

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/actionforest/api/pkg/apperror"
)

// Handler exposes search over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new search handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Search handles POST /search.
func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	resp, err := h.service.Search(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	if resp.Results == nil {
		resp.Results = []SearchResultItem{}
	}
	return c.JSON(http.StatusOK, apperror.OK(resp))
}
