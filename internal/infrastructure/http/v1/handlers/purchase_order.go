package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/purchasing"
	"medstore/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderService is the purchasing service as seen by the transport.
type PurchaseOrderService interface {
	Create(ctx context.Context, in purchasing.CreateInput) (*purchasing.PurchaseOrder, error)
	Update(ctx context.Context, in purchasing.UpdateInput) (*purchasing.PurchaseOrder, error)
	Get(ctx context.Context, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error)
	List(ctx context.Context, orgID id.ID, filter purchasing.Filter) (domain.ListResult[purchasing.PurchaseOrder], error)
	Approve(ctx context.Context, orgID, orderID id.ID, actorID string, in purchasing.ApproveInput) (*purchasing.PurchaseOrder, error)
	MarkOrdered(ctx context.Context, orgID, orderID id.ID, actorID string) (*purchasing.PurchaseOrder, error)
	Receive(ctx context.Context, in purchasing.ReceiveInput) (*purchasing.ReceiveResult, error)
	Cancel(ctx context.Context, orgID, orderID id.ID, actorID, reason string) (*purchasing.PurchaseOrder, error)
	Delete(ctx context.Context, orgID, orderID id.ID, actorID string) error
	ListReceipts(ctx context.Context, orgID, orderID id.ID) ([]purchasing.Receipt, error)
}

// PurchaseOrderHandler handles HTTP requests for purchase orders.
type PurchaseOrderHandler struct {
	*BaseHandler
	service PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	orgID, actorID, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(orgID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order, "Purchase order created")
}

// List handles GET /purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	orgID, _, ok := h.Scope(c)
	if !ok {
		return
	}

	var q dto.PurchaseOrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orgID, orderID, _, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	order, err := h.service.Get(c.Request.Context(), orgID, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Update handles PUT /purchase-orders/:id.
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(orgID, orderID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Update(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, order, "Purchase order updated")
}

// Approve handles POST /purchase-orders/:id/approve.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.ApprovePurchaseOrderRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	order, err := h.service.Approve(c.Request.Context(), orgID, orderID, actorID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, order, "Purchase order approved")
}

// MarkOrdered handles POST /purchase-orders/:id/order.
func (h *PurchaseOrderHandler) MarkOrdered(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	order, err := h.service.MarkOrdered(c.Request.Context(), orgID, orderID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, order, "Purchase order marked as ordered")
}

// Receive handles POST /purchase-orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	in, err := req.ToInput(orgID, orderID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Receive(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	message := "Purchase order received"
	if len(result.Outcome.Failed()) > 0 {
		message = "Purchase order received with failed lines"
	}
	h.Message(c, dto.FromReceiveResult(result), message)
}

// Receipts handles GET /purchase-orders/:id/receipts.
func (h *PurchaseOrderHandler) Receipts(c *gin.Context) {
	orgID, orderID, _, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	receipts, err := h.service.ListReceipts(c.Request.Context(), orgID, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if receipts == nil {
		receipts = []purchasing.Receipt{}
	}
	h.OK(c, receipts)
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.CancelPurchaseOrderRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orgID, orderID, actorID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, order, "Purchase order cancelled")
}

// Delete handles DELETE /purchase-orders/:id.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	orgID, orderID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), orgID, orderID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, dto.IDResponse{ID: orderID.String()}, "Purchase order deleted")
}
