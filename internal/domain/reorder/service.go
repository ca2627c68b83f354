package reorder

import (
	"context"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/tx"
	"medstore/internal/core/types"
	"medstore/internal/domain/audit"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/supplier"
	"medstore/pkg/logger"
)

// Skip reasons reported by GenerateAutoPurchaseOrders.
const (
	SkipBelowMinimum = "below_minimum"
	SkipNoSupplier   = "no_supplier"
)

const autoOrderNote = "Auto-generated from reorder suggestions"

// OrderPlacer is the part of the purchasing service used to place generated orders.
type OrderPlacer interface {
	Create(ctx context.Context, in purchasing.CreateInput) (*purchasing.PurchaseOrder, error)
	Approve(ctx context.Context, orgID, orderID id.ID, actorID string, in purchasing.ApproveInput) (*purchasing.PurchaseOrder, error)
}

// Config tunes order generation.
type Config struct {
	// DefaultPaymentTerms is used for the delivery estimate when a supplier has none.
	DefaultPaymentTerms int
	// ApprovalRule gates auto-approval. Nil approves everything.
	ApprovalRule *ApprovalRule
	// Audit receives one entry per generated order.
	Audit audit.Recorder
}

// GenerateInput is the payload of generateAutoPurchaseOrders.
type GenerateInput struct {
	OrganizationID  id.ID
	ActorID         string
	GroupBySupplier bool
	MinOrderValue   types.Money
	AutoApprove     bool
}

// Skipped explains why a group or medicine produced no order.
type Skipped struct {
	SupplierID *id.ID      `json:"supplierId,omitempty"`
	MedicineID *id.ID      `json:"medicineId,omitempty"`
	Value      types.Money `json:"value"`
	Reason     string      `json:"reason"`
}

// GenerateResult lists the orders created and what was left out.
type GenerateResult struct {
	Orders  []*purchasing.PurchaseOrder `json:"orders"`
	Skipped []Skipped                   `json:"skipped"`
}

// Service turns low stock into suggestions and purchase orders.
type Service struct {
	source    Source
	orders    OrderPlacer
	txManager tx.ReadOnlyManager
	cfg       Config
}

// NewService creates a new reorder service.
func NewService(source Source, orders OrderPlacer, txManager tx.ReadOnlyManager, cfg Config) *Service {
	if cfg.DefaultPaymentTerms <= 0 {
		cfg.DefaultPaymentTerms = supplier.DefaultPaymentTerms
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}
	return &Service{source: source, orders: orders, txManager: txManager, cfg: cfg}
}

// Suggestions returns reorder suggestions grouped by supplier.
// Inside a caller's transaction it reads through that transaction.
func (s *Service) Suggestions(ctx context.Context, orgID id.ID) ([]Group, error) {
	var groups []Group
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		candidates, err := s.source.LowStockCandidates(ctx, orgID)
		if err != nil {
			return err
		}
		groups = BuildGroups(candidates)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GenerateAutoPurchaseOrders creates pending orders from the current suggestions.
// All orders are created in one transaction: either every order is stored or none.
func (s *Service) GenerateAutoPurchaseOrders(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if in.MinOrderValue.IsNegative() {
		return nil, apperror.NewValidation("minimum order value cannot be negative").
			WithDetail("field", "minOrderValue")
	}

	result := &GenerateResult{
		Orders:  []*purchasing.PurchaseOrder{},
		Skipped: []Skipped{},
	}

	// suggestions are read in the same transaction that places the orders; audit
	// entries of the placed orders are held until it commits
	held, pending := audit.Hold(ctx)
	err := s.txManager.RunInTransaction(held, func(ctx context.Context) error {
		groups, err := s.Suggestions(ctx, in.OrganizationID)
		if err != nil {
			return err
		}

		for _, g := range groups {
			if g.Supplier == nil {
				for _, item := range g.Items {
					result.Skipped = append(result.Skipped, Skipped{
						MedicineID: &item.MedicineID,
						Value:      item.EstimatedCost,
						Reason:     SkipNoSupplier,
					})
				}
				continue
			}

			batches := [][]Suggestion{g.Items}
			if !in.GroupBySupplier {
				batches = make([][]Suggestion, 0, len(g.Items))
				for _, item := range g.Items {
					batches = append(batches, []Suggestion{item})
				}
			}

			for _, batch := range batches {
				total := estimatedTotal(batch)
				if total.LessThan(in.MinOrderValue) {
					skip := Skipped{SupplierID: &g.Supplier.ID, Value: total, Reason: SkipBelowMinimum}
					if !in.GroupBySupplier {
						skip.MedicineID = &batch[0].MedicineID
					}
					result.Skipped = append(result.Skipped, skip)
					continue
				}

				o, err := s.placeOrder(ctx, in, g.Supplier, batch)
				if err != nil {
					return err
				}
				result.Orders = append(result.Orders, o)
			}
		}
		return nil
	})
	if err != nil {
		pending.Discard()
		return nil, err
	}

	pending.Flush(ctx)
	for _, o := range result.Orders {
		audit.Emit(ctx, s.cfg.Audit, audit.Entry{
			OrganizationID: in.OrganizationID,
			EntityType:     "purchase_order",
			EntityID:       o.ID,
			Action:         audit.ActionGenerate,
			ActorID:        in.ActorID,
			Changes: map[string]any{
				"poNumber":      o.PONumber,
				"status":        o.Status.String(),
				"minOrderValue": in.MinOrderValue.String(),
				"autoApprove":   in.AutoApprove,
			},
		})
	}

	logger.Info(ctx, "reorder purchase orders generated",
		"orders", len(result.Orders),
		"skipped", len(result.Skipped),
		"auto_approve", in.AutoApprove,
	)
	return result, nil
}

func (s *Service) placeOrder(ctx context.Context, in GenerateInput, sup *SupplierRef, batch []Suggestion) (*purchasing.PurchaseOrder, error) {
	lines := make([]purchasing.LineInput, 0, len(batch))
	for _, item := range batch {
		lines = append(lines, purchasing.LineInput{
			MedicineID: item.MedicineID,
			Quantity:   item.SuggestedQuantity,
			UnitCost:   item.UnitCost,
		})
	}

	terms := sup.PaymentTerms
	if terms <= 0 {
		terms = s.cfg.DefaultPaymentTerms
	}
	orderDate := time.Now().UTC().Truncate(24 * time.Hour)
	delivery := orderDate.AddDate(0, 0, terms)
	notes := autoOrderNote

	o, err := s.orders.Create(ctx, purchasing.CreateInput{
		OrganizationID:       in.OrganizationID,
		ActorID:              in.ActorID,
		SupplierID:           sup.ID,
		Items:                lines,
		OrderDate:            &orderDate,
		ExpectedDeliveryDate: &delivery,
		Notes:                &notes,
	})
	if err != nil {
		return nil, err
	}

	if !in.AutoApprove {
		return o, nil
	}
	if s.cfg.ApprovalRule != nil {
		ok, err := s.cfg.ApprovalRule.Allows(ApprovalFacts{
			Total:        o.TotalAmount.InexactFloat64(),
			ItemCount:    len(o.Items),
			SupplierCode: sup.Code,
			PaymentTerms: terms,
		})
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		if !ok {
			logger.Debug(ctx, "auto-approval declined by rule",
				"po_number", o.PONumber,
				"rule", s.cfg.ApprovalRule.String(),
			)
			return o, nil
		}
	}
	return s.orders.Approve(ctx, in.OrganizationID, o.ID, in.ActorID, purchasing.ApproveInput{})
}

func estimatedTotal(items []Suggestion) types.Money {
	total := types.Zero()
	for _, item := range items {
		total = total.Add(item.EstimatedCost)
	}
	return total
}
