package dependencies

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/pkg/apperror"
)

// DependencyRequest is the body of POST and DELETE /dependencies.
type DependencyRequest struct {
	ActionID    string `json:"action_id"`
	DependsOnID string `json:"depends_on_id"`
}

// Handler exposes dependency edge operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new dependencies handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Add handles POST /dependencies.
func (h *Handler) Add(c echo.Context) error {
	var req DependencyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	actionID, err := actions.ParseID(req.ActionID)
	if err != nil {
		return apperror.NewValidation("invalid action_id")
	}
	dependsOnID, err := actions.ParseID(req.DependsOnID)
	if err != nil {
		return apperror.NewValidation("invalid depends_on_id")
	}

	result, err := h.service.Add(c.Request().Context(), actionID, dependsOnID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, apperror.OK(result.Edge.ToResponse()))
}

// Remove handles DELETE /dependencies.
func (h *Handler) Remove(c echo.Context) error {
	var req DependencyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	actionID, err := actions.ParseID(req.ActionID)
	if err != nil {
		return apperror.NewValidation("invalid action_id")
	}
	dependsOnID, err := actions.ParseID(req.DependsOnID)
	if err != nil {
		return apperror.NewValidation("invalid depends_on_id")
	}

	result, err := h.service.Remove(c.Request().Context(), actionID, dependsOnID)
	if err != nil {
		return err
	}

	var deleted *actions.EdgeResponse
	if result.DeletedEdge != nil {
		deleted = result.DeletedEdge.ToResponse()
	}
	return c.JSON(http.StatusOK, apperror.OK(map[string]any{
		"action":       result.Action.ToResponse(),
		"depends_on":   result.DependsOn.ToResponse(),
		"deleted_edge": deleted,
	}))
}
