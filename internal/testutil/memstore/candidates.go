package memstore

import (
	"context"

	"medstore/internal/core/id"
	"medstore/internal/domain/reorder"
)

// Candidates returns the reorder source view of the store.
func (st *Store) Candidates() reorder.Source {
	return candidateSource{st: st}
}

type candidateSource struct {
	st *Store
}

func (c candidateSource) LowStockCandidates(_ context.Context, orgID id.ID) ([]reorder.Candidate, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	var out []reorder.Candidate
	for _, m := range c.st.state.medicines {
		if m.OrganizationID != orgID || !m.IsActive || !m.IsLowStock() {
			continue
		}
		cand := reorder.Candidate{
			MedicineID:   m.ID,
			MedicineName: m.Name,
			Quantity:     m.Quantity,
			Threshold:    m.LowStockThreshold,
			CostPrice:    m.CostPrice,
		}
		if m.SupplierID != nil {
			if s, ok := c.st.state.suppliers[*m.SupplierID]; ok && s.OrganizationID == orgID {
				sid, code, name, terms, active := s.ID, s.Code, s.Name, s.PaymentTerms, s.IsActive
				cand.SupplierID = &sid
				cand.SupplierCode = &code
				cand.SupplierName = &name
				cand.SupplierPaymentTerms = &terms
				cand.SupplierActive = &active
			}
		}
		out = append(out, cand)
	}
	return out, nil
}
