// Package purchasing implements the purchase-order lifecycle and goods receiving.
package purchasing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"medstore/internal/core/apperror"
	"medstore/internal/core/entity"
	"medstore/internal/core/id"
	"medstore/internal/core/types"
)

const entityName = "purchase order"

// Item is an order line. TotalCost is always Quantity x UnitCost, recomputed on write.
type Item struct {
	ID               id.ID       `db:"id" json:"id"`
	OrganizationID   id.ID       `db:"organization_id" json:"-"`
	PurchaseOrderID  id.ID       `db:"purchase_order_id" json:"purchaseOrderId"`
	LineNo           int         `db:"line_no" json:"lineNo"`
	MedicineID       id.ID       `db:"medicine_id" json:"medicineId"`
	Quantity         int         `db:"quantity" json:"quantity"`
	UnitCost         types.Money `db:"unit_cost" json:"unitCost"`
	TotalCost        types.Money `db:"total_cost" json:"totalCost"`
	ReceivedQuantity int         `db:"received_quantity" json:"receivedQuantity"`
}

// LineInput is a caller-supplied order line.
type LineInput struct {
	MedicineID id.ID
	Quantity   int
	UnitCost   types.Money
}

// PurchaseOrder is the aggregate root: header, totals and lines.
type PurchaseOrder struct {
	entity.BaseEntity

	PONumber             string     `db:"po_number" json:"poNumber"`
	SupplierID           id.ID      `db:"supplier_id" json:"supplierId"`
	Status               Status     `db:"status" json:"status"`
	OrderDate            time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`

	// Totals are derived from lines; see Recalculate
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxPercent     types.Money `db:"tax_percent" json:"taxPercent"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`

	ApprovedAmount decimal.NullDecimal `db:"approved_amount" json:"approvedAmount"`
	ApprovedBy     *string             `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time          `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovalNotes  *string             `db:"approval_notes" json:"approvalNotes,omitempty"`

	OrderedAt    *time.Time `db:"ordered_at" json:"orderedAt,omitempty"`
	ReceivedAt   *time.Time `db:"received_at" json:"receivedAt,omitempty"`
	ReceivedBy   *string    `db:"received_by" json:"receivedBy,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancelReason,omitempty"`

	Notes     *string `db:"notes" json:"notes,omitempty"`
	CreatedBy string  `db:"created_by" json:"createdBy"`

	Items []Item `db:"-" json:"items"`
}

// NewPurchaseOrder creates a pending order dated today.
func NewPurchaseOrder(orgID, supplierID id.ID, actorID string) *PurchaseOrder {
	base := entity.NewBaseEntity(orgID)
	return &PurchaseOrder{
		BaseEntity:     base,
		SupplierID:     supplierID,
		Status:         StatusPending,
		OrderDate:      truncateDay(base.CreatedAt),
		Subtotal:       types.Zero(),
		TaxPercent:     types.Zero(),
		TaxAmount:      types.Zero(),
		DiscountAmount: types.Zero(),
		TotalAmount:    types.Zero(),
		CreatedBy:      actorID,
	}
}

// SetItems replaces all lines. Lines for the same medicine are merged when their
// unit cost matches and rejected otherwise.
func (o *PurchaseOrder) SetItems(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}

	items := make([]Item, 0, len(lines))
	byMedicine := make(map[id.ID]int, len(lines))
	for i, l := range lines {
		if id.IsNil(l.MedicineID) {
			return apperror.NewValidation("medicine is required").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be greater than zero").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
		if l.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}

		if idx, dup := byMedicine[l.MedicineID]; dup {
			if !items[idx].UnitCost.Equal(l.UnitCost) {
				return apperror.NewValidation("medicine appears twice with different unit costs").
					WithDetail("field", "items").
					WithDetail("medicine_id", l.MedicineID.String())
			}
			items[idx].Quantity += l.Quantity
			continue
		}

		byMedicine[l.MedicineID] = len(items)
		items = append(items, Item{
			ID:              id.New(),
			OrganizationID:  o.OrganizationID,
			PurchaseOrderID: o.ID,
			LineNo:          len(items) + 1,
			MedicineID:      l.MedicineID,
			Quantity:        l.Quantity,
			UnitCost:        l.UnitCost,
		})
	}

	o.Items = items
	o.Recalculate()
	return nil
}

// Recalculate derives line totals and header totals:
// subtotal = sum(qty x unit cost), tax = subtotal x taxPercent / 100, total = subtotal + tax - discount.
func (o *PurchaseOrder) Recalculate() {
	subtotal := types.Zero()
	for i := range o.Items {
		o.Items[i].TotalCost = types.LineTotal(o.Items[i].Quantity, o.Items[i].UnitCost)
		subtotal = subtotal.Add(o.Items[i].TotalCost)
	}
	o.Subtotal = subtotal
	o.TaxAmount = types.Percent(subtotal, o.TaxPercent)
	o.TotalAmount = subtotal.Add(o.TaxAmount).Sub(o.DiscountAmount)
}

// Validate implements entity.Validatable interface.
func (o *PurchaseOrder) Validate(_ context.Context) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	if o.TaxPercent.IsNegative() || o.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("tax percent must be between 0 and 100").WithDetail("field", "taxPercent")
	}
	if o.DiscountAmount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").WithDetail("field", "discountAmount")
	}
	if o.TotalAmount.IsNegative() {
		return apperror.NewValidation("discount exceeds order value").WithDetail("field", "discountAmount")
	}
	if o.ExpectedDeliveryDate != nil && o.ExpectedDeliveryDate.Before(o.OrderDate) {
		return apperror.NewValidation("expected delivery date is before order date").
			WithDetail("field", "expectedDeliveryDate")
	}
	return nil
}

// ItemByMedicine returns the line ordering medicineID, or nil.
func (o *PurchaseOrder) ItemByMedicine(medicineID id.ID) *Item {
	for i := range o.Items {
		if o.Items[i].MedicineID == medicineID {
			return &o.Items[i]
		}
	}
	return nil
}

func (o *PurchaseOrder) transitionTo(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransition(entityName, o.Status.String(), target.String())
	}
	o.Status = target
	o.Touch()
	return nil
}

// Approve moves a pending order to approved. approvedAmount defaults to the order total.
func (o *PurchaseOrder) Approve(actorID string, approvedAmount *types.Money, notes *string) error {
	if approvedAmount != nil && approvedAmount.IsNegative() {
		return apperror.NewValidation("approved amount cannot be negative").WithDetail("field", "approvedAmount")
	}
	if err := o.transitionTo(StatusApproved); err != nil {
		return err
	}

	amount := o.TotalAmount
	if approvedAmount != nil {
		amount = *approvedAmount
	}
	o.ApprovedAmount = decimal.NewNullDecimal(amount)
	o.ApprovedBy = &actorID
	o.ApprovedAt = timePtr(o.UpdatedAt)
	o.ApprovalNotes = notes
	return nil
}

// MarkOrdered records that the order was sent to the supplier. Only approved orders qualify.
func (o *PurchaseOrder) MarkOrdered() error {
	if o.Status != StatusApproved {
		return apperror.NewInvalidTransition(entityName, o.Status.String(), StatusOrdered.String())
	}
	if err := o.transitionTo(StatusOrdered); err != nil {
		return err
	}
	o.OrderedAt = timePtr(o.UpdatedAt)
	return nil
}

// Cancel terminates a pending, approved or ordered order. Stock is not touched.
func (o *PurchaseOrder) Cancel(reason string) error {
	if err := o.transitionTo(StatusCancelled); err != nil {
		return err
	}
	o.CancelledAt = timePtr(o.UpdatedAt)
	if reason != "" {
		o.CancelReason = &reason
	}
	return nil
}

// markReceived closes a receipt with received or partially_received.
func (o *PurchaseOrder) markReceived(target Status, actorID string) error {
	if err := o.transitionTo(target); err != nil {
		return err
	}
	o.ReceivedAt = timePtr(o.UpdatedAt)
	o.ReceivedBy = &actorID
	return nil
}

// resetApproval returns an edited approved order to pending.
func (o *PurchaseOrder) resetApproval() {
	o.Status = StatusPending
	o.ApprovedAmount = decimal.NullDecimal{}
	o.ApprovedBy = nil
	o.ApprovedAt = nil
	o.ApprovalNotes = nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
