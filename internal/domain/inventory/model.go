// Package inventory provides the medicine stock ledger.
package inventory

import (
	"context"
	"strings"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/entity"
	"medstore/internal/core/id"
	"medstore/internal/core/types"
)

// Medicine is the stock-bearing entity. Quantity is never negative.
type Medicine struct {
	entity.BaseEntity

	Name              string      `db:"name" json:"name"`
	GenericName       *string     `db:"generic_name" json:"genericName,omitempty"`
	Manufacturer      *string     `db:"manufacturer" json:"manufacturer,omitempty"`
	BatchNumber       *string     `db:"batch_number" json:"batchNumber,omitempty"`
	Category          *string     `db:"category" json:"category,omitempty"`
	Unit              string      `db:"unit" json:"unit"`
	Quantity          int         `db:"quantity" json:"quantity"`
	CostPrice         types.Money `db:"cost_price" json:"costPrice"`
	SellingPrice      types.Money `db:"selling_price" json:"sellingPrice"`
	LowStockThreshold int         `db:"low_stock_threshold" json:"lowStockThreshold"`
	ExpiryDate        *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	SupplierID        *id.ID      `db:"supplier_id" json:"supplierId,omitempty"`
	IsActive          bool        `db:"is_active" json:"isActive"`
}

// NewMedicine creates an active medicine with zero stock.
func NewMedicine(orgID id.ID, name string) *Medicine {
	return &Medicine{
		BaseEntity:   entity.NewBaseEntity(orgID),
		Name:         strings.TrimSpace(name),
		Unit:         "pcs",
		CostPrice:    types.Zero(),
		SellingPrice: types.Zero(),
		IsActive:     true,
	}
}

// Validate implements entity.Validatable interface.
func (m *Medicine) Validate(_ context.Context) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if m.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if m.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}
	if m.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").WithDetail("field", "costPrice")
	}
	if m.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price cannot be negative").WithDetail("field", "sellingPrice")
	}
	return nil
}

// IsLowStock reports whether the medicine is at or below its reorder trigger.
func (m *Medicine) IsLowStock() bool {
	return m.Quantity <= m.LowStockThreshold
}

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionIncrement TransactionType = "increment"
	TransactionDecrement TransactionType = "decrement"
)

// ReferenceType names what caused a ledger entry.
type ReferenceType string

const (
	ReferenceAdjustment    ReferenceType = "adjustment"
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	ReferenceSale          ReferenceType = "sale"
)

// Transaction is an append-only ledger entry; Quantity is the absolute delta.
type Transaction struct {
	ID             id.ID           `db:"id" json:"id"`
	OrganizationID id.ID           `db:"organization_id" json:"organizationId"`
	MedicineID     id.ID           `db:"medicine_id" json:"medicineId"`
	Type           TransactionType `db:"type" json:"type"`
	Quantity       int             `db:"quantity" json:"quantity"`
	QuantityBefore int             `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int             `db:"quantity_after" json:"quantityAfter"`
	Reason         string          `db:"reason" json:"reason"`
	ReferenceType  ReferenceType   `db:"reference_type" json:"referenceType"`
	ReferenceID    *id.ID          `db:"reference_id" json:"referenceId,omitempty"`
	CreatedBy      string          `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}
