package memstore

import (
	"context"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/supplier"
)

// Suppliers returns the supplier repository view of the store.
func (st *Store) Suppliers() *SupplierRepo {
	return &SupplierRepo{st: st}
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	st *Store
}

var _ supplier.Repository = (*SupplierRepo)(nil)

func (r *SupplierRepo) Create(_ context.Context, s *supplier.Supplier) error {
	if err := r.st.fail("supplier.Create", s.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.state.suppliers {
		if existing.OrganizationID == s.OrganizationID && existing.Code == s.Code {
			return apperror.NewDuplicate("supplier", "code", s.Code)
		}
	}
	r.st.state.suppliers[s.ID] = *s
	return nil
}

func (r *SupplierRepo) GetByID(_ context.Context, orgID, supplierID id.ID) (*supplier.Supplier, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.state.suppliers[supplierID]
	if !ok || s.OrganizationID != orgID {
		return nil, notFound("supplier", supplierID)
	}
	return &s, nil
}

func (r *SupplierRepo) Exists(_ context.Context, orgID, supplierID id.ID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.state.suppliers[supplierID]
	return ok && s.OrganizationID == orgID, nil
}

func (r *SupplierRepo) ExistsByCode(_ context.Context, orgID id.ID, code string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.state.suppliers {
		if s.OrganizationID == orgID && s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *SupplierRepo) Update(_ context.Context, s *supplier.Supplier) error {
	if err := r.st.fail("supplier.Update", s.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	existing, ok := r.st.state.suppliers[s.ID]
	if !ok || existing.OrganizationID != s.OrganizationID {
		return notFound("supplier", s.ID)
	}
	r.st.state.suppliers[s.ID] = *s
	return nil
}

func (r *SupplierRepo) SetActive(_ context.Context, orgID, supplierID id.ID, active bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.state.suppliers[supplierID]
	if !ok || s.OrganizationID != orgID {
		return notFound("supplier", supplierID)
	}
	s.IsActive = active
	r.st.state.suppliers[supplierID] = s
	return nil
}

func (r *SupplierRepo) Delete(_ context.Context, orgID, supplierID id.ID) error {
	if err := r.st.fail("supplier.Delete", supplierID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.state.suppliers[supplierID]
	if !ok || s.OrganizationID != orgID {
		return notFound("supplier", supplierID)
	}
	delete(r.st.state.suppliers, supplierID)
	return nil
}

func (r *SupplierRepo) IsReferenced(_ context.Context, orgID, supplierID id.ID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, o := range r.st.state.orders {
		if o.OrganizationID == orgID && o.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SupplierRepo) List(_ context.Context, orgID id.ID, f supplier.Filter) (domain.ListResult[supplier.Supplier], error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var items []supplier.Supplier
	for _, s := range r.st.state.suppliers {
		if s.OrganizationID != orgID || (f.ActiveOnly && !s.IsActive) {
			continue
		}
		if !matches(f.Search, s.Name, s.Code) {
			continue
		}
		items = append(items, s)
	}
	sortByName(items, func(s supplier.Supplier) string { return s.Name })
	return page(items, f.ListFilter), nil
}
