package dto

import (
	"github.com/shopspring/decimal"

	"medstore/internal/core/id"
	"medstore/internal/domain/inventory"
)

// CreateMedicineRequest registers a medicine with its opening stock.
type CreateMedicineRequest struct {
	Name              string          `json:"name" binding:"required"`
	GenericName       *string         `json:"genericName,omitempty"`
	Manufacturer      *string         `json:"manufacturer,omitempty"`
	BatchNumber       *string         `json:"batchNumber,omitempty"`
	Category          *string         `json:"category,omitempty"`
	Unit              string          `json:"unit,omitempty"`
	Quantity          int             `json:"quantity" binding:"gte=0"`
	CostPrice         decimal.Decimal `json:"costPrice" binding:"decimal_gte0"`
	SellingPrice      decimal.Decimal `json:"sellingPrice" binding:"decimal_gte0"`
	LowStockThreshold int             `json:"lowStockThreshold" binding:"gte=0"`
	ExpiryDate        *Date           `json:"expiryDate,omitempty"`
	SupplierID        string          `json:"supplierId,omitempty" binding:"omitempty,uuid"`
}

// ToEntity converts request to domain entity.
func (r *CreateMedicineRequest) ToEntity(orgID id.ID) (*inventory.Medicine, error) {
	supplierID, err := parseOptionalID("supplierId", r.SupplierID)
	if err != nil {
		return nil, err
	}

	m := inventory.NewMedicine(orgID, r.Name)
	m.GenericName = r.GenericName
	m.Manufacturer = r.Manufacturer
	m.BatchNumber = r.BatchNumber
	m.Category = r.Category
	if r.Unit != "" {
		m.Unit = r.Unit
	}
	m.Quantity = r.Quantity
	m.CostPrice = r.CostPrice
	m.SellingPrice = r.SellingPrice
	m.LowStockThreshold = r.LowStockThreshold
	m.ExpiryDate = timePtr(r.ExpiryDate)
	m.SupplierID = supplierID
	return m, nil
}

// AdjustStockRequest is a manual stock correction. Delta is signed and non-zero.
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// ToInput converts the request to a service input.
func (r *AdjustStockRequest) ToInput(orgID, medicineID id.ID, actorID string) inventory.AdjustInput {
	return inventory.AdjustInput{
		OrganizationID: orgID,
		MedicineID:     medicineID,
		Delta:          r.Delta,
		Reason:         r.Reason,
		ActorID:        actorID,
	}
}

// MedicineListQuery holds the list filters of medicines.
type MedicineListQuery struct {
	ListQuery
	LowStock        bool   `form:"lowStock"`
	SupplierID      string `form:"supplierId"`
	IncludeInactive bool   `form:"includeInactive"`
}

// ToFilter converts the query to a repository filter.
func (q *MedicineListQuery) ToFilter() (inventory.MedicineFilter, error) {
	supplierID, err := parseOptionalID("supplierId", q.SupplierID)
	if err != nil {
		return inventory.MedicineFilter{}, err
	}
	return inventory.MedicineFilter{
		ListFilter:      q.ListQuery.ToFilter(),
		LowStockOnly:    q.LowStock,
		SupplierID:      supplierID,
		IncludeInactive: q.IncludeInactive,
	}, nil
}
