package relationships

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/pkg/apperror"
)

// ContextResponse is the payload of GET /actions/:id/context.
type ContextResponse struct {
	Action        *actions.ActionResponse `json:"action"`
	Relationships Relationships           `json:"relationships"`
	Flags         map[string][]string     `json:"relationship_flags"`
}

// Relationships groups the five derived views around one action.
type Relationships struct {
	Ancestors    []*actions.ActionResponse `json:"ancestors"`
	Children     []*actions.ActionResponse `json:"children"`
	Siblings     []*actions.ActionResponse `json:"siblings"`
	Dependencies []*actions.ActionResponse `json:"dependencies"`
	Dependents   []*actions.ActionResponse `json:"dependents"`
}

// Handler exposes the read-side traversals over HTTP.
type Handler struct {
	service     *Service
	actionsRepo *actions.Repository
}

// NewHandler creates a new relationships handler.
func NewHandler(service *Service, repo *actions.Repository) *Handler {
	return &Handler{service: service, actionsRepo: repo}
}

// Context handles GET /actions/:id/context.
func (h *Handler) Context(c echo.Context) error {
	id, err := actions.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	action, err := h.actionsRepo.GetAction(ctx, h.actionsRepo.DB(), id)
	if err != nil {
		return err
	}

	ancestors, err := h.service.Ancestors(ctx, id)
	if err != nil {
		return err
	}
	children, err := h.service.Children(ctx, id)
	if err != nil {
		return err
	}
	siblings, err := h.service.Siblings(ctx, id)
	if err != nil {
		return err
	}
	dependencies, err := h.service.Dependencies(ctx, id)
	if err != nil {
		return err
	}
	dependents, err := h.service.Dependents(ctx, id)
	if err != nil {
		return err
	}

	candidates := collectIDs(ancestors, children, siblings, dependencies, dependents)
	flags, err := h.service.Flags(ctx, id, candidates)
	if err != nil {
		return err
	}
	flagsByID := make(map[string][]string, len(flags))
	for cid, tags := range flags {
		flagsByID[cid.String()] = tags
	}

	return c.JSON(http.StatusOK, apperror.OK(&ContextResponse{
		Action: action.ToResponse(),
		Relationships: Relationships{
			Ancestors:    toResponses(ancestors),
			Children:     toResponses(children),
			Siblings:     toResponses(siblings),
			Dependencies: toResponses(dependencies),
			Dependents:   toResponses(dependents),
		},
		Flags: flagsByID,
	}))
}

// Tree handles GET /actions/:id/tree.
func (h *Handler) Tree(c echo.Context) error {
	id, err := actions.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	nodes, err := h.service.Tree(c.Request().Context(), &id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperror.OK(map[string]any{"tree": nodes[0]}))
}

// Forest handles GET /tree.
func (h *Handler) Forest(c echo.Context) error {
	nodes, err := h.service.Tree(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	if nodes == nil {
		nodes = []*TreeNode{}
	}
	return c.JSON(http.StatusOK, apperror.OK(map[string]any{"roots": nodes}))
}

func toResponses(list []*actions.Action) []*actions.ActionResponse {
	out := make([]*actions.ActionResponse, 0, len(list))
	for _, a := range list {
		out = append(out, a.ToResponse())
	}
	return out
}

func collectIDs(lists ...[]*actions.Action) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, list := range lists {
		for _, a := range list {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a.ID)
		}
	}
	return out
}
