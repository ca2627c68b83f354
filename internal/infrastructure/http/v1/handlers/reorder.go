package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/id"
	"medstore/internal/domain/reorder"
	"medstore/internal/infrastructure/http/v1/dto"
)

// ReorderService is the reorder advisor as seen by the transport.
type ReorderService interface {
	Suggestions(ctx context.Context, orgID id.ID) ([]reorder.Group, error)
	GenerateAutoPurchaseOrders(ctx context.Context, in reorder.GenerateInput) (*reorder.GenerateResult, error)
}

// ReorderHandler serves reorder suggestions and order generation.
type ReorderHandler struct {
	*BaseHandler
	service ReorderService
}

// NewReorderHandler creates a new reorder handler.
func NewReorderHandler(base *BaseHandler, service ReorderService) *ReorderHandler {
	return &ReorderHandler{BaseHandler: base, service: service}
}

// Suggestions handles GET /reorder/suggestions.
func (h *ReorderHandler) Suggestions(c *gin.Context) {
	orgID, _, ok := h.Scope(c)
	if !ok {
		return
	}

	groups, err := h.service.Suggestions(c.Request.Context(), orgID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, groups)
}

// Generate handles POST /reorder/generate.
func (h *ReorderHandler) Generate(c *gin.Context) {
	orgID, actorID, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.GenerateOrdersRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.GenerateAutoPurchaseOrders(c.Request.Context(), req.ToInput(orgID, actorID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result, "Purchase orders generated")
}
