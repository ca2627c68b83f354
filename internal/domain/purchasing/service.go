package purchasing

import (
	"context"
	"fmt"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/numerator"
	"medstore/internal/core/tx"
	"medstore/internal/core/types"
	"medstore/internal/domain"
	"medstore/internal/domain/audit"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/supplier"
	"medstore/pkg/logger"
)

// SupplierDirectory resolves the supplier of an order.
type SupplierDirectory interface {
	GetByID(ctx context.Context, orgID, supplierID id.ID) (*supplier.Supplier, error)
}

// MedicineCatalog resolves the medicines on order lines.
type MedicineCatalog interface {
	Get(ctx context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error)
}

// StockLedger applies receipts to stock.
type StockLedger interface {
	AdjustQuantity(ctx context.Context, in inventory.AdjustInput) (*inventory.Medicine, error)
}

// Config holds receiving policy.
type Config struct {
	// TrackPartialReceipts sets partially_received when a receipt leaves any line short.
	// When false every receipt closes the order as received.
	TrackPartialReceipts bool
}

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Suppliers SupplierDirectory
	Medicines MedicineCatalog
	Ledger    StockLedger
	Numerator numerator.Generator
	TxManager tx.Manager
	Audit     audit.Recorder
}

// Service implements the purchase-order state machine.
type Service struct {
	repo      Repository
	suppliers SupplierDirectory
	medicines MedicineCatalog
	ledger    StockLedger
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	cfg       Config
}

// NewService creates a new purchase-order service.
func NewService(deps Deps, cfg Config) *Service {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	return &Service{
		repo:      deps.Repo,
		suppliers: deps.Suppliers,
		medicines: deps.Medicines,
		ledger:    deps.Ledger,
		numerator: deps.Numerator,
		txManager: deps.TxManager,
		audit:     deps.Audit,
		cfg:       cfg,
	}
}

// CreateInput is the payload of createPurchaseOrder.
type CreateInput struct {
	OrganizationID       id.ID
	ActorID              string
	SupplierID           id.ID
	Items                []LineInput
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	Notes                *string
	TaxPercent           types.Money
	DiscountAmount       types.Money
}

// Create validates the input, numbers the order and stores it as pending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	if id.IsNil(in.OrganizationID) {
		return nil, apperror.NewValidation("organization is required")
	}

	o := NewPurchaseOrder(in.OrganizationID, in.SupplierID, in.ActorID)
	if err := s.applyEditable(ctx, o, editableFields{
		Items:                in.Items,
		OrderDate:            in.OrderDate,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
		TaxPercent:           in.TaxPercent,
		DiscountAmount:       in.DiscountAmount,
	}); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, o.OrganizationID, numerator.DefaultConfig("PO"), o.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("generate po number: %w", err)
	}
	o.PONumber = number

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, o)
	}); err != nil {
		return nil, err
	}

	s.record(ctx, o, audit.ActionCreate, in.ActorID, map[string]any{
		"poNumber": o.PONumber,
		"total":    o.TotalAmount.String(),
		"items":    len(o.Items),
	})
	logger.Info(ctx, "purchase order created",
		"id", o.ID,
		"po_number", o.PONumber,
		"total", o.TotalAmount.String(),
	)
	return o, nil
}

// UpdateInput replaces the editable part of a pending or approved order.
type UpdateInput struct {
	OrganizationID       id.ID
	OrderID              id.ID
	ActorID              string
	Items                []LineInput
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	Notes                *string
	TaxPercent           types.Money
	DiscountAmount       types.Money
}

// Update rewrites lines and terms. An approved order goes back to pending and needs
// a new approval; ordered and later orders are immutable.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*PurchaseOrder, error) {
	fields := editableFields{
		Items:                in.Items,
		OrderDate:            in.OrderDate,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
		TaxPercent:           in.TaxPercent,
		DiscountAmount:       in.DiscountAmount,
	}

	var o *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, in.OrganizationID, in.OrderID)
		if err != nil {
			return err
		}
		if !o.Status.CanEditLines() {
			return apperror.NewBusinessRule(apperror.CodeLinesLocked, "purchase order can no longer be edited").
				WithDetail("status", o.Status.String())
		}

		if err := s.applyEditable(ctx, o, fields); err != nil {
			return err
		}
		if o.Status == StatusApproved {
			o.resetApproval()
		}
		o.Touch()

		if err := s.repo.ReplaceItems(ctx, o); err != nil {
			return err
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, o, audit.ActionUpdate, in.ActorID, map[string]any{
		"total": o.TotalAmount.String(),
		"items": len(o.Items),
	})
	return o, nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, orgID, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, orgID, orderID)
}

// List returns order headers matching filter.
func (s *Service) List(ctx context.Context, orgID id.ID, filter Filter) (domain.ListResult[PurchaseOrder], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return domain.ListResult[PurchaseOrder]{}, apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", filter.Status.String())
	}
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, orgID, filter)
}

// ApproveInput carries the optional approval overrides.
type ApproveInput struct {
	ApprovedAmount *types.Money
	Notes          *string
}

// Approve moves a pending order to approved and records the approver.
func (s *Service) Approve(ctx context.Context, orgID, orderID id.ID, actorID string, in ApproveInput) (*PurchaseOrder, error) {
	o, err := s.transition(ctx, orgID, orderID, func(o *PurchaseOrder) error {
		return o.Approve(actorID, in.ApprovedAmount, in.Notes)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, o, audit.ActionApprove, actorID, map[string]any{
		"approvedAmount": o.ApprovedAmount.Decimal.String(),
	})
	logger.Info(ctx, "purchase order approved", "id", o.ID, "po_number", o.PONumber)
	return o, nil
}

// MarkOrdered moves an approved order to ordered.
func (s *Service) MarkOrdered(ctx context.Context, orgID, orderID id.ID, actorID string) (*PurchaseOrder, error) {
	o, err := s.transition(ctx, orgID, orderID, (*PurchaseOrder).MarkOrdered)
	if err != nil {
		return nil, err
	}

	s.record(ctx, o, audit.ActionOrder, actorID, nil)
	logger.Info(ctx, "purchase order marked as ordered", "id", o.ID, "po_number", o.PONumber)
	return o, nil
}

// Cancel terminates a non-terminal order without touching stock.
func (s *Service) Cancel(ctx context.Context, orgID, orderID id.ID, actorID, reason string) (*PurchaseOrder, error) {
	o, err := s.transition(ctx, orgID, orderID, func(o *PurchaseOrder) error {
		return o.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, o, audit.ActionCancel, actorID, map[string]any{"reason": reason})
	logger.Info(ctx, "purchase order cancelled", "id", o.ID, "po_number", o.PONumber)
	return o, nil
}

// Delete removes a pending order with its lines.
func (s *Service) Delete(ctx context.Context, orgID, orderID id.ID, actorID string) error {
	var number string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orgID, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return apperror.NewBusinessRule(apperror.CodeNonPendingDelete, "cannot delete non-pending orders").
				WithDetail("status", o.Status.String())
		}
		number = o.PONumber
		return s.repo.Delete(ctx, orgID, orderID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: orgID,
		EntityType:     "purchase_order",
		EntityID:       orderID,
		Action:         audit.ActionDelete,
		ActorID:        actorID,
		Changes:        map[string]any{"poNumber": number},
	})
	logger.Info(ctx, "purchase order deleted", "id", orderID, "po_number", number)
	return nil
}

// ListReceipts returns the goods-received log of an order.
func (s *Service) ListReceipts(ctx context.Context, orgID, orderID id.ID) ([]Receipt, error) {
	if _, err := s.repo.GetByID(ctx, orgID, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListReceipts(ctx, orgID, orderID)
}

// transition locks the order, applies fn and persists the header.
func (s *Service) transition(ctx context.Context, orgID, orderID id.ID, fn func(*PurchaseOrder) error) (*PurchaseOrder, error) {
	var o *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, orgID, orderID)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

type editableFields struct {
	Items                []LineInput
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	Notes                *string
	TaxPercent           types.Money
	DiscountAmount       types.Money
}

// applyEditable validates input and references, then sets lines and terms on o.
func (s *Service) applyEditable(ctx context.Context, o *PurchaseOrder, f editableFields) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if f.OrderDate != nil {
		o.OrderDate = truncateDay(*f.OrderDate)
	}
	o.ExpectedDeliveryDate = f.ExpectedDeliveryDate
	o.Notes = f.Notes
	o.TaxPercent = f.TaxPercent
	o.DiscountAmount = f.DiscountAmount

	if err := o.SetItems(f.Items); err != nil {
		return err
	}
	if err := o.Validate(ctx); err != nil {
		return err
	}

	sup, err := s.suppliers.GetByID(ctx, o.OrganizationID, o.SupplierID)
	if err != nil {
		return err
	}
	if !sup.IsActive {
		return apperror.NewBusinessRule(apperror.CodeInactiveSupplier, "supplier is inactive").
			WithDetail("supplier_id", sup.ID.String())
	}

	for _, item := range o.Items {
		if _, err := s.medicines.Get(ctx, o.OrganizationID, item.MedicineID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("unknown medicine").
					WithDetail("field", "items").
					WithDetail("medicine_id", item.MedicineID.String())
			}
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, o *PurchaseOrder, action audit.Action, actorID string, changes map[string]any) {
	if changes == nil {
		changes = map[string]any{}
	}
	changes["status"] = o.Status.String()
	audit.Emit(ctx, s.audit, audit.Entry{
		OrganizationID: o.OrganizationID,
		EntityType:     "purchase_order",
		EntityID:       o.ID,
		Action:         action,
		ActorID:        actorID,
		Changes:        changes,
	})
}
