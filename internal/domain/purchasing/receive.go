package purchasing

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain/audit"
	"medstore/internal/domain/inventory"
	"medstore/pkg/logger"
)

var tracer = otel.Tracer("medstore/purchasing")

// ReceiveItem overrides the quantity received for one medicine.
type ReceiveItem struct {
	MedicineID       id.ID
	ReceivedQuantity int
}

// ReceiveInput is the payload of receivePurchaseOrder.
type ReceiveInput struct {
	OrganizationID id.ID
	OrderID        id.ID
	ActorID        string

	// Items with a positive quantity are received verbatim, even above the ordered
	// quantity or for medicines not on the order. Without any, every line is
	// received at its outstanding quantity.
	Items []ReceiveItem

	// AbortOnLineFailure rolls the whole receipt back when any line cannot be applied.
	AbortOnLineFailure bool
}

// LineOutcome is the result of applying one medicine of a receipt.
type LineOutcome struct {
	MedicineID    id.ID  `json:"medicineId"`
	Quantity      int    `json:"quantity"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
	Error         string `json:"error,omitempty"`
}

// Outcome is the sealed result of a receipt: Success, PartialSuccess or Failure.
type Outcome interface {
	Kind() string
	Applied() []LineOutcome
	Failed() []LineOutcome
}

// Success means every line was applied.
type Success struct {
	Lines []LineOutcome
}

// PartialSuccess means some lines failed; the order status still advanced.
type PartialSuccess struct {
	AppliedLines []LineOutcome
	FailedLines  []LineOutcome
}

// Failure means no line could be applied; the order status still advanced.
type Failure struct {
	FailedLines []LineOutcome
}

func (Success) Kind() string { return "success" }
func (o Success) Applied() []LineOutcome { return o.Lines }
func (Success) Failed() []LineOutcome { return nil }
func (PartialSuccess) Kind() string { return "partial_success" }
func (o PartialSuccess) Applied() []LineOutcome { return o.AppliedLines }
func (o PartialSuccess) Failed() []LineOutcome { return o.FailedLines }
func (Failure) Kind() string { return "failure" }
func (Failure) Applied() []LineOutcome { return nil }
func (o Failure) Failed() []LineOutcome { return o.FailedLines }

// Completeness compares what the order has received so far with what it ordered.
type Completeness string

const (
	CompletenessComplete Completeness = "complete"
	CompletenessShort    Completeness = "short"
	CompletenessExcess   Completeness = "excess"
)

// ReceiveResult is returned by Receive.
type ReceiveResult struct {
	Order        *PurchaseOrder
	Outcome      Outcome
	Completeness Completeness
}

type receiptLine struct {
	medicineID id.ID
	quantity   int
}

// Receive applies a delivery to stock inside one transaction.
//
// The order row is locked first, so concurrent receipts of the same order serialize
// and the second one fails the status guard. Each line runs under its own savepoint:
// a missing medicine or a failed write is reported in the outcome and the remaining
// lines still apply, unless AbortOnLineFailure is set.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	for i, item := range in.Items {
		if item.ReceivedQuantity < 0 {
			return nil, apperror.NewValidation("received quantity cannot be negative").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
	}

	ctx, span := tracer.Start(ctx, "purchasing.receive")
	defer span.End()
	span.SetAttributes(attribute.String("purchase_order.id", in.OrderID.String()))

	var result *ReceiveResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, in.OrganizationID, in.OrderID)
		if err != nil {
			return err
		}
		if !o.Status.CanReceive() {
			return apperror.NewInvalidTransition(entityName, o.Status.String(), StatusReceived.String())
		}

		plan := buildReceiptPlan(o, in.Items)
		if len(plan) == 0 {
			return apperror.NewBusinessRule(apperror.CodeNoItemsToReceive, "no items to receive")
		}

		now := time.Now().UTC()
		reason := fmt.Sprintf("PO %s receipt", o.PONumber)
		var applied, failed []LineOutcome
		for _, line := range plan {
			outcome, err := s.applyLine(ctx, o, line, in.ActorID, reason)
			if err != nil {
				outcome.Error = lineError(err)
				failed = append(failed, outcome)
				logger.Warn(ctx, "receipt line not applied",
					"po_number", o.PONumber,
					"medicine_id", line.medicineID,
					"quantity", line.quantity,
					"error", err,
				)
				continue
			}
			applied = append(applied, outcome)
		}

		if in.AbortOnLineFailure && len(failed) > 0 {
			return apperror.NewBusinessRule(apperror.CodeReceiveLineFailed, "some receipt lines could not be applied").
				WithDetail("failed_lines", failed)
		}

		if len(applied) > 0 {
			receipts := make([]Receipt, 0, len(applied))
			for _, a := range applied {
				receipts = append(receipts, Receipt{
					ID:               id.New(),
					OrganizationID:   o.OrganizationID,
					PurchaseOrderID:  o.ID,
					MedicineID:       a.MedicineID,
					ReceivedQuantity: a.Quantity,
					ReceivedBy:       in.ActorID,
					ReceivedAt:       now,
				})
			}
			if err := s.repo.AppendReceipts(ctx, receipts); err != nil {
				return err
			}
		}

		completeness := measure(o, applied)
		target := StatusReceived
		if s.cfg.TrackPartialReceipts && completeness == CompletenessShort {
			target = StatusPartiallyReceived
		}
		if err := o.markReceived(target, in.ActorID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}

		result = &ReceiveResult{
			Order:        o,
			Outcome:      classify(applied, failed),
			Completeness: completeness,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "receive failed")
		return nil, err
	}

	o := result.Order
	s.record(ctx, o, audit.ActionReceive, in.ActorID, map[string]any{
		"outcome":      result.Outcome.Kind(),
		"completeness": string(result.Completeness),
		"applied":      result.Outcome.Applied(),
		"failed":       result.Outcome.Failed(),
	})
	logger.Info(ctx, "purchase order received",
		"id", o.ID,
		"po_number", o.PONumber,
		"status", o.Status,
		"outcome", result.Outcome.Kind(),
		"applied_lines", len(result.Outcome.Applied()),
		"failed_lines", len(result.Outcome.Failed()),
	)
	return result, nil
}

// applyLine increments stock for one medicine under a savepoint.
// On error the outcome carries the medicine and quantity only.
func (s *Service) applyLine(ctx context.Context, o *PurchaseOrder, line receiptLine, actorID, reason string) (LineOutcome, error) {
	outcome := LineOutcome{MedicineID: line.medicineID, Quantity: line.quantity}

	err := s.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		m, err := s.ledger.AdjustQuantity(ctx, inventory.AdjustInput{
			OrganizationID: o.OrganizationID,
			MedicineID:     line.medicineID,
			Delta:          line.quantity,
			Reason:         reason,
			ReferenceType:  inventory.ReferencePurchaseOrder,
			ReferenceID:    &o.ID,
			ActorID:        actorID,
		})
		if err != nil {
			return err
		}
		if item := o.ItemByMedicine(line.medicineID); item != nil {
			if err := s.repo.AddReceivedQuantity(ctx, o.OrganizationID, item.ID, line.quantity); err != nil {
				return err
			}
		}
		outcome.PreviousStock = m.Quantity - line.quantity
		outcome.NewStock = m.Quantity
		return nil
	})
	if err != nil {
		return outcome, err
	}

	// only after the savepoint is released, so a failed line leaves the order untouched
	if item := o.ItemByMedicine(line.medicineID); item != nil {
		item.ReceivedQuantity += line.quantity
	}
	return outcome, nil
}

// buildReceiptPlan maps medicines to quantities. Caller items with a positive quantity
// win; otherwise every order line is received for what is still outstanding, so a
// follow-up on a partially received order tops it up to the ordered quantity and
// lines already complete are skipped. Ordered medicines come first in
// line order, extra medicines follow sorted by id, so row locks are taken in a stable order.
func buildReceiptPlan(o *PurchaseOrder, items []ReceiveItem) []receiptLine {
	quantities := make(map[id.ID]int)
	for _, item := range items {
		if item.ReceivedQuantity > 0 && !id.IsNil(item.MedicineID) {
			quantities[item.MedicineID] += item.ReceivedQuantity
		}
	}
	if len(quantities) == 0 {
		for _, line := range o.Items {
			if outstanding := line.Quantity - line.ReceivedQuantity; outstanding > 0 {
				quantities[line.MedicineID] += outstanding
			}
		}
	}

	plan := make([]receiptLine, 0, len(quantities))
	for _, line := range o.Items {
		if q, ok := quantities[line.MedicineID]; ok {
			plan = append(plan, receiptLine{medicineID: line.MedicineID, quantity: q})
			delete(quantities, line.MedicineID)
		}
	}

	extra := make([]receiptLine, 0, len(quantities))
	for medicineID, q := range quantities {
		extra = append(extra, receiptLine{medicineID: medicineID, quantity: q})
	}
	sort.Slice(extra, func(i, j int) bool {
		return bytes.Compare(extra[i].medicineID[:], extra[j].medicineID[:]) < 0
	})
	return append(plan, extra...)
}

// measure compares cumulative received quantities with ordered ones.
func measure(o *PurchaseOrder, applied []LineOutcome) Completeness {
	excess := false
	for _, item := range o.Items {
		if item.ReceivedQuantity < item.Quantity {
			return CompletenessShort
		}
		if item.ReceivedQuantity > item.Quantity {
			excess = true
		}
	}
	for _, line := range applied {
		if o.ItemByMedicine(line.MedicineID) == nil {
			excess = true
		}
	}
	if excess {
		return CompletenessExcess
	}
	return CompletenessComplete
}

func classify(applied, failed []LineOutcome) Outcome {
	switch {
	case len(failed) == 0:
		return Success{Lines: applied}
	case len(applied) == 0:
		return Failure{FailedLines: failed}
	default:
		return PartialSuccess{AppliedLines: applied, FailedLines: failed}
	}
}

// lineError keeps storage text out of the outcome report.
func lineError(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code != apperror.CodeDatabase && appErr.Code != apperror.CodeInternal {
		return appErr.Message
	}
	return "stock update failed"
}
