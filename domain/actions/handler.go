package actions

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/actionforest/api/pkg/apperror"
)

// Handler exposes the hierarchy operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new actions handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /actions.
func (h *Handler) Create(c echo.Context) error {
	var req CreateActionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	resp, err := h.service.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, apperror.OK(resp))
}

// List handles GET /actions.
func (h *Handler) List(c echo.Context) error {
	actions, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]*ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.ToResponse())
	}
	return c.JSON(http.StatusOK, apperror.OK(out))
}

// Get handles GET /actions/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	action, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperror.OK(action.ToResponse()))
}

// Update handles PATCH /actions/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateActionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	action, err := h.service.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperror.OK(action.ToResponse()))
}

// SetSummary handles PUT /actions/:id/summary.
func (h *Handler) SetSummary(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req SetSummaryRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if strings.TrimSpace(req.Summary) == "" {
		return apperror.NewValidation("summary must not be empty")
	}

	if err := h.service.SetSummary(c.Request().Context(), id, req.Summary); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperror.OK(map[string]any{"id": id}))
}

// Move handles PUT /actions/:id/parent.
func (h *Handler) Move(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req MoveActionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	var newParentID *uuid.UUID
	if req.NewParentID != nil && strings.TrimSpace(*req.NewParentID) != "" {
		pid, err := ParseID(*req.NewParentID)
		if err != nil {
			return apperror.NewValidation("invalid new_parent_id")
		}
		newParentID = &pid
	}

	if err := h.service.Move(c.Request().Context(), id, newParentID); err != nil {
		return err
	}

	resp := map[string]any{"id": id}
	if newParentID != nil {
		resp["new_parent_id"] = *newParentID
	}
	return c.JSON(http.StatusOK, apperror.OK(resp))
}

// CreateChild handles POST /actions/:id/children.
func (h *Handler) CreateChild(c echo.Context) error {
	parentID, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req CreateChildRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	resp, err := h.service.CreateChild(c.Request().Context(), parentID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, apperror.OK(resp))
}

// Delete handles DELETE /actions/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req DeleteActionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	resp, err := h.service.Delete(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperror.OK(resp))
}
