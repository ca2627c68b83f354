package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
	"medstore/internal/infrastructure/http/v1/dto"
)

// MedicineService is the inventory service as seen by the transport.
type MedicineService interface {
	Create(ctx context.Context, actorID string, m *inventory.Medicine) error
	Get(ctx context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error)
	List(ctx context.Context, orgID id.ID, filter inventory.MedicineFilter) (domain.ListResult[inventory.Medicine], error)
	Deactivate(ctx context.Context, orgID, medicineID id.ID, actorID string) error
	AdjustStock(ctx context.Context, in inventory.AdjustInput) (*inventory.Medicine, error)
	ListTransactions(ctx context.Context, orgID, medicineID id.ID, filter domain.ListFilter) (domain.ListResult[inventory.Transaction], error)
}

// MedicineHandler handles HTTP requests for medicines and their stock ledger.
type MedicineHandler struct {
	*BaseHandler
	service MedicineService
}

// NewMedicineHandler creates a new medicine handler.
func NewMedicineHandler(base *BaseHandler, service MedicineService) *MedicineHandler {
	return &MedicineHandler{BaseHandler: base, service: service}
}

// Create handles POST /medicines.
func (h *MedicineHandler) Create(c *gin.Context) {
	orgID, actorID, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreateMedicineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := req.ToEntity(orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), actorID, m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m, "Medicine created")
}

// List handles GET /medicines.
func (h *MedicineHandler) List(c *gin.Context) {
	orgID, _, ok := h.Scope(c)
	if !ok {
		return
	}

	var q dto.MedicineListQuery
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

// Get handles GET /medicines/:id.
func (h *MedicineHandler) Get(c *gin.Context) {
	orgID, medicineID, _, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), orgID, medicineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Adjust handles POST /medicines/:id/adjust.
func (h *MedicineHandler) Adjust(c *gin.Context) {
	orgID, medicineID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.AdjustStock(c.Request.Context(), req.ToInput(orgID, medicineID, actorID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, m, "Stock adjusted")
}

// Transactions handles GET /medicines/:id/transactions.
func (h *MedicineHandler) Transactions(c *gin.Context) {
	orgID, medicineID, _, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListTransactions(c.Request.Context(), orgID, medicineID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Deactivate handles DELETE /medicines/:id.
func (h *MedicineHandler) Deactivate(c *gin.Context) {
	orgID, medicineID, actorID, ok := h.ScopeWithID(c)
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), orgID, medicineID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, dto.IDResponse{ID: medicineID.String()}, "Medicine deactivated")
}
