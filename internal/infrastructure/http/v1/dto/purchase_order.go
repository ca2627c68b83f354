package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"medstore/internal/core/id"
	"medstore/internal/core/types"
	"medstore/internal/domain/purchasing"
)

// --- Request DTOs ---

// PurchaseOrderLineRequest is one line of a create/update request.
type PurchaseOrderLineRequest struct {
	MedicineID string          `json:"medicineId" binding:"required,uuid"`
	Quantity   int             `json:"quantity" binding:"gt=0"`
	UnitCost   decimal.Decimal `json:"unitCost" binding:"decimal_gte0"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID string `json:"supplierId" binding:"required,uuid"`
	PurchaseOrderTerms
}

// UpdatePurchaseOrderRequest replaces lines and terms of a pending or approved order.
type UpdatePurchaseOrderRequest struct {
	PurchaseOrderTerms
}

// PurchaseOrderTerms are the editable fields shared by create and update.
type PurchaseOrderTerms struct {
	Items                []PurchaseOrderLineRequest `json:"items" binding:"dive"`
	OrderDate            *Date                      `json:"orderDate,omitempty"`
	ExpectedDeliveryDate *Date                      `json:"expectedDeliveryDate,omitempty"`
	Notes                *string                    `json:"notes,omitempty"`
	TaxPercent           decimal.Decimal            `json:"taxPercent" binding:"decimal_gte0"`
	DiscountAmount       decimal.Decimal            `json:"discountAmount" binding:"decimal_gte0"`
}

func (t PurchaseOrderTerms) lines() ([]purchasing.LineInput, error) {
	lines := make([]purchasing.LineInput, 0, len(t.Items))
	for i, item := range t.Items {
		medicineID, err := ParseID(fmt.Sprintf("items[%d].medicineId", i), item.MedicineID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, purchasing.LineInput{
			MedicineID: medicineID,
			Quantity:   item.Quantity,
			UnitCost:   item.UnitCost,
		})
	}
	return lines, nil
}

// ToInput converts the request to a service input.
func (r *CreatePurchaseOrderRequest) ToInput(orgID id.ID, actorID string) (purchasing.CreateInput, error) {
	supplierID, err := ParseID("supplierId", r.SupplierID)
	if err != nil {
		return purchasing.CreateInput{}, err
	}
	lines, err := r.lines()
	if err != nil {
		return purchasing.CreateInput{}, err
	}
	return purchasing.CreateInput{
		OrganizationID:       orgID,
		ActorID:              actorID,
		SupplierID:           supplierID,
		Items:                lines,
		OrderDate:            timePtr(r.OrderDate),
		ExpectedDeliveryDate: timePtr(r.ExpectedDeliveryDate),
		Notes:                r.Notes,
		TaxPercent:           r.TaxPercent,
		DiscountAmount:       r.DiscountAmount,
	}, nil
}

// ToInput converts the request to a service input.
func (r *UpdatePurchaseOrderRequest) ToInput(orgID, orderID id.ID, actorID string) (purchasing.UpdateInput, error) {
	lines, err := r.lines()
	if err != nil {
		return purchasing.UpdateInput{}, err
	}
	return purchasing.UpdateInput{
		OrganizationID:       orgID,
		OrderID:              orderID,
		ActorID:              actorID,
		Items:                lines,
		OrderDate:            timePtr(r.OrderDate),
		ExpectedDeliveryDate: timePtr(r.ExpectedDeliveryDate),
		Notes:                r.Notes,
		TaxPercent:           r.TaxPercent,
		DiscountAmount:       r.DiscountAmount,
	}, nil
}

// ApprovePurchaseOrderRequest carries optional approval overrides.
type ApprovePurchaseOrderRequest struct {
	ApprovedAmount *decimal.Decimal `json:"approvedAmount,omitempty" binding:"omitempty,decimal_gte0"`
	Notes          *string          `json:"notes,omitempty"`
}

// ToInput converts the request to a service input.
func (r *ApprovePurchaseOrderRequest) ToInput() purchasing.ApproveInput {
	in := purchasing.ApproveInput{Notes: r.Notes}
	if r.ApprovedAmount != nil {
		amount := types.Money(*r.ApprovedAmount)
		in.ApprovedAmount = &amount
	}
	return in
}

// CancelPurchaseOrderRequest has an optional reason.
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason"`
}

// ReceiveItemRequest overrides the received quantity of one medicine.
type ReceiveItemRequest struct {
	MedicineID       string `json:"medicineId" binding:"required,uuid"`
	ReceivedQuantity int    `json:"receivedQuantity" binding:"gte=0"`
}

// ReceivePurchaseOrderRequest is the optional body of a receipt.
type ReceivePurchaseOrderRequest struct {
	Items              []ReceiveItemRequest `json:"items" binding:"dive"`
	AbortOnLineFailure bool                 `json:"abortOnLineFailure"`
}

// ToInput converts the request to a service input.
func (r *ReceivePurchaseOrderRequest) ToInput(orgID, orderID id.ID, actorID string) (purchasing.ReceiveInput, error) {
	items := make([]purchasing.ReceiveItem, 0, len(r.Items))
	for i, item := range r.Items {
		medicineID, err := ParseID(fmt.Sprintf("items[%d].medicineId", i), item.MedicineID)
		if err != nil {
			return purchasing.ReceiveInput{}, err
		}
		items = append(items, purchasing.ReceiveItem{
			MedicineID:       medicineID,
			ReceivedQuantity: item.ReceivedQuantity,
		})
	}
	return purchasing.ReceiveInput{
		OrganizationID:     orgID,
		OrderID:            orderID,
		ActorID:            actorID,
		Items:              items,
		AbortOnLineFailure: r.AbortOnLineFailure,
	}, nil
}

// PurchaseOrderListQuery holds the list filters of purchase orders.
type PurchaseOrderListQuery struct {
	ListQuery
	Status     string `form:"status"`
	SupplierID string `form:"supplierId"`
	FromDate   string `form:"fromDate"`
	ToDate     string `form:"toDate"`
}

// ToFilter converts the query to a repository filter.
func (q *PurchaseOrderListQuery) ToFilter() (purchasing.Filter, error) {
	filter := purchasing.Filter{ListFilter: q.ListQuery.ToFilter()}

	if q.Status != "" {
		status := purchasing.Status(q.Status)
		if !status.IsValid() {
			return filter, invalidQuery("status", q.Status)
		}
		filter.Status = &status
	}

	supplierID, err := parseOptionalID("supplierId", q.SupplierID)
	if err != nil {
		return filter, err
	}
	filter.SupplierID = supplierID

	if filter.FromDate, err = parseQueryDate("fromDate", q.FromDate); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseQueryDate("toDate", q.ToDate); err != nil {
		return filter, err
	}
	return filter, nil
}

// --- Response DTOs ---

// ReceiveResponse reports a completed receipt.
type ReceiveResponse struct {
	Order        *purchasing.PurchaseOrder `json:"order"`
	Outcome      string                    `json:"outcome"`
	Completeness string                    `json:"completeness"`
	Applied      []purchasing.LineOutcome  `json:"applied"`
	Failed       []purchasing.LineOutcome  `json:"failed"`
}

// FromReceiveResult maps the service result.
func FromReceiveResult(r *purchasing.ReceiveResult) ReceiveResponse {
	resp := ReceiveResponse{
		Order:        r.Order,
		Outcome:      r.Outcome.Kind(),
		Completeness: string(r.Completeness),
		Applied:      r.Outcome.Applied(),
		Failed:       r.Outcome.Failed(),
	}
	if resp.Applied == nil {
		resp.Applied = []purchasing.LineOutcome{}
	}
	if resp.Failed == nil {
		resp.Failed = []purchasing.LineOutcome{}
	}
	return resp
}
