// Package reorder derives replenishment suggestions from stock levels and turns them
// into purchase orders.
package reorder

import (
	"context"
	"sort"
	"strings"

	"medstore/internal/core/id"
	"medstore/internal/core/types"
)

const (
	minSafetyStock = 50
	roundingStep   = 10
)

// Candidate is a medicine at or below its low-stock threshold, with its supplier if any.
type Candidate struct {
	MedicineID   id.ID       `db:"medicine_id"`
	MedicineName string      `db:"medicine_name"`
	Quantity     int         `db:"quantity"`
	Threshold    int         `db:"low_stock_threshold"`
	CostPrice    types.Money `db:"cost_price"`

	SupplierID           *id.ID  `db:"supplier_id"`
	SupplierCode         *string `db:"supplier_code"`
	SupplierName         *string `db:"supplier_name"`
	SupplierPaymentTerms *int    `db:"supplier_payment_terms"`
	SupplierActive       *bool   `db:"supplier_active"`
}

// Source lists reorder candidates: active medicines with quantity <= threshold.
type Source interface {
	LowStockCandidates(ctx context.Context, orgID id.ID) ([]Candidate, error)
}

// SuggestedQuantity returns how much to reorder:
// safety = max(2 x threshold, 50), suggested = max(safety - current, threshold),
// rounded up to the next multiple of 10.
func SuggestedQuantity(threshold, current int) int {
	safety := max(2*threshold, minSafetyStock)
	suggested := max(safety-current, threshold)
	return roundUp(suggested, roundingStep)
}

func roundUp(n, step int) int {
	if n <= 0 {
		return 0
	}
	return ((n + step - 1) / step) * step
}

// Suggestion is one medicine to reorder.
type Suggestion struct {
	MedicineID        id.ID       `json:"medicineId"`
	MedicineName      string      `json:"medicineName"`
	CurrentStock      int         `json:"currentStock"`
	Threshold         int         `json:"threshold"`
	SuggestedQuantity int         `json:"suggestedQuantity"`
	UnitCost          types.Money `json:"unitCost"`
	EstimatedCost     types.Money `json:"estimatedCost"`
}

// SupplierRef identifies the supplier of a group.
type SupplierRef struct {
	ID           id.ID  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	PaymentTerms int    `json:"paymentTerms"`
}

// Group collects suggestions for one active supplier. Supplier is nil for medicines
// without an active supplier.
type Group struct {
	Supplier           *SupplierRef `json:"supplier"`
	Items              []Suggestion `json:"items"`
	ItemCount          int          `json:"itemCount"`
	TotalEstimatedCost types.Money  `json:"totalEstimatedCost"`
}

// BuildGroups turns candidates into supplier groups. Groups are sorted by supplier
// name with the unassigned group last; items are sorted by medicine name.
func BuildGroups(candidates []Candidate) []Group {
	if len(candidates) == 0 {
		return []Group{}
	}

	bySupplier := make(map[id.ID]*Group)
	var unassigned *Group
	for _, c := range candidates {
		if c.Quantity > c.Threshold {
			continue
		}
		qty := SuggestedQuantity(c.Threshold, c.Quantity)
		s := Suggestion{
			MedicineID:        c.MedicineID,
			MedicineName:      c.MedicineName,
			CurrentStock:      c.Quantity,
			Threshold:         c.Threshold,
			SuggestedQuantity: qty,
			UnitCost:          c.CostPrice,
			EstimatedCost:     types.LineTotal(qty, c.CostPrice),
		}

		var g *Group
		if c.hasActiveSupplier() {
			g = bySupplier[*c.SupplierID]
			if g == nil {
				g = &Group{Supplier: c.supplierRef(), TotalEstimatedCost: types.Zero()}
				bySupplier[*c.SupplierID] = g
			}
		} else {
			if unassigned == nil {
				unassigned = &Group{TotalEstimatedCost: types.Zero()}
			}
			g = unassigned
		}
		g.Items = append(g.Items, s)
		g.ItemCount++
		g.TotalEstimatedCost = g.TotalEstimatedCost.Add(s.EstimatedCost)
	}

	groups := make([]Group, 0, len(bySupplier)+1)
	for _, g := range bySupplier {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Supplier.Name) < strings.ToLower(groups[j].Supplier.Name)
	})
	if unassigned != nil {
		groups = append(groups, *unassigned)
	}
	for i := range groups {
		items := groups[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return strings.ToLower(items[a].MedicineName) < strings.ToLower(items[b].MedicineName)
		})
	}
	return groups
}

func (c Candidate) hasActiveSupplier() bool {
	return c.SupplierID != nil && c.SupplierActive != nil && *c.SupplierActive
}

func (c Candidate) supplierRef() *SupplierRef {
	ref := &SupplierRef{ID: *c.SupplierID}
	if c.SupplierCode != nil {
		ref.Code = *c.SupplierCode
	}
	if c.SupplierName != nil {
		ref.Name = *c.SupplierName
	}
	if c.SupplierPaymentTerms != nil {
		ref.PaymentTerms = *c.SupplierPaymentTerms
	}
	return ref
}
