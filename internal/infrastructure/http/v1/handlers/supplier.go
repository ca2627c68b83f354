package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/supplier"
	"medstore/internal/infrastructure/http/v1/dto"
)

// SupplierService is the supplier directory as seen by the transport.
type SupplierService interface {
	Create(ctx context.Context, actorID string, sup *supplier.Supplier) error
	Get(ctx context.Context, orgID, supplierID id.ID) (*supplier.Supplier, error)
	List(ctx context.Context, orgID id.ID, filter supplier.Filter) (domain.ListResult[supplier.Supplier], error)
	Update(ctx context.Context, actorID string, sup *supplier.Supplier) error
	Delete(ctx context.Context, orgID, supplierID id.ID, actorID string) (supplier.DeleteResult, error)
}

// SupplierHandler handles HTTP requests for the supplier directory.
type SupplierHandler struct {
	*BaseHandler
	service SupplierService
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service SupplierService) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	orgID, actorID, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup := req.ToEntity(orgID)
	if err := h.service.Create(c.Request.Context(), actorID, sup); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sup, "Supplier created")
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	orgID, _, ok := h.Scope(c)
	if !ok {
		return
	}

	var q dto.SupplierListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), orgID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	orgID, supplierID, _, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	sup, err := h.service.Get(c.Request.Context(), orgID, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sup)
}

// Update handles PUT /suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	orgID, supplierID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	sup, err := h.service.Get(ctx, orgID, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(sup)

	if err := h.service.Update(ctx, actorID, sup); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, sup, "Supplier updated")
}

// Delete handles DELETE /suppliers/:id. Suppliers with orders are deactivated instead.
func (h *SupplierHandler) Delete(c *gin.Context) {
	orgID, supplierID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), orgID, supplierID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	message := "Supplier deleted"
	if result.Deactivated {
		message = "Supplier has purchase orders and was deactivated"
	}
	h.Message(c, result, message)
}
