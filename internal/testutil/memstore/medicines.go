package memstore

import (
	"context"
	"sort"
	"time"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
)

// Medicines returns the inventory repository view of the store.
func (st *Store) Medicines() *MedicineRepo {
	return &MedicineRepo{st: st}
}

// MedicineRepo implements inventory.Repository.
type MedicineRepo struct {
	st *Store
}

var _ inventory.Repository = (*MedicineRepo)(nil)

func (r *MedicineRepo) Create(_ context.Context, m *inventory.Medicine) error {
	if err := r.st.fail("medicine.Create", m.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.state.medicines[m.ID] = *m
	return nil
}

func (r *MedicineRepo) GetByID(_ context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	m, ok := r.st.state.medicines[medicineID]
	if !ok || m.OrganizationID != orgID {
		return nil, notFound("medicine", medicineID)
	}
	return &m, nil
}

func (r *MedicineRepo) GetForUpdate(ctx context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error) {
	return r.GetByID(ctx, orgID, medicineID)
}

func (r *MedicineRepo) UpdateQuantity(_ context.Context, orgID, medicineID id.ID, quantity int, at time.Time) error {
	if err := r.st.fail("medicine.UpdateQuantity", medicineID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	m, ok := r.st.state.medicines[medicineID]
	if !ok || m.OrganizationID != orgID {
		return notFound("medicine", medicineID)
	}
	m.Quantity = quantity
	m.UpdatedAt = at
	r.st.state.medicines[medicineID] = m
	return nil
}

func (r *MedicineRepo) SetActive(_ context.Context, orgID, medicineID id.ID, active bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	m, ok := r.st.state.medicines[medicineID]
	if !ok || m.OrganizationID != orgID {
		return notFound("medicine", medicineID)
	}
	m.IsActive = active
	r.st.state.medicines[medicineID] = m
	return nil
}

func (r *MedicineRepo) List(_ context.Context, orgID id.ID, f inventory.MedicineFilter) (domain.ListResult[inventory.Medicine], error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var items []inventory.Medicine
	for _, m := range r.st.state.medicines {
		switch {
		case m.OrganizationID != orgID:
		case !f.IncludeInactive && !m.IsActive:
		case f.LowStockOnly && !m.IsLowStock():
		case f.SupplierID != nil && (m.SupplierID == nil || *m.SupplierID != *f.SupplierID):
		case !matches(f.Search, m.Name):
		default:
			items = append(items, m)
		}
	}
	sortByName(items, func(m inventory.Medicine) string { return m.Name })
	return page(items, f.ListFilter), nil
}

func (r *MedicineRepo) AppendTransaction(_ context.Context, t *inventory.Transaction) error {
	if err := r.st.fail("medicine.AppendTransaction", t.MedicineID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.state.transactions = append(r.st.state.transactions, *t)
	return nil
}

func (r *MedicineRepo) ListTransactions(_ context.Context, orgID, medicineID id.ID, f domain.ListFilter) (domain.ListResult[inventory.Transaction], error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var items []inventory.Transaction
	for _, t := range r.st.state.transactions {
		if t.OrganizationID == orgID && t.MedicineID == medicineID {
			items = append(items, t)
		}
	}
	// newest first; insertion order breaks ties
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return page(items, f), nil
}
