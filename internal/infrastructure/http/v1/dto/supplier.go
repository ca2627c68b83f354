package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"medstore/internal/core/id"
	"medstore/internal/domain/supplier"
)

// SupplierFields are the editable supplier fields.
type SupplierFields struct {
	Name          string          `json:"name" binding:"required"`
	ContactPerson *string         `json:"contactPerson,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Email         *string         `json:"email,omitempty" binding:"omitempty,email"`
	Address       *string         `json:"address,omitempty"`
	TaxNumber     *string         `json:"taxNumber,omitempty"`
	CreditLimit   decimal.Decimal `json:"creditLimit" binding:"decimal_gte0"`
	PaymentTerms  int             `json:"paymentTerms" binding:"gte=0"`
	IsActive      *bool           `json:"isActive,omitempty"`
}

// ApplyTo copies the fields onto s.
func (f *SupplierFields) ApplyTo(s *supplier.Supplier) {
	s.Name = strings.TrimSpace(f.Name)
	s.ContactPerson = f.ContactPerson
	s.Phone = f.Phone
	s.Email = f.Email
	s.Address = f.Address
	s.TaxNumber = f.TaxNumber
	s.CreditLimit = f.CreditLimit
	s.PaymentTerms = f.PaymentTerms
	if f.IsActive != nil {
		s.IsActive = *f.IsActive
	}
}

// CreateSupplierRequest adds a supplier. Code is generated when empty.
type CreateSupplierRequest struct {
	Code string `json:"code,omitempty"`
	SupplierFields
}

// ToEntity converts request to domain entity.
func (r *CreateSupplierRequest) ToEntity(orgID id.ID) *supplier.Supplier {
	s := supplier.NewSupplier(orgID, r.Name)
	s.Code = strings.TrimSpace(r.Code)
	r.ApplyTo(s)
	return s
}

// UpdateSupplierRequest replaces the editable fields. Code cannot change.
type UpdateSupplierRequest struct {
	SupplierFields
}

// SupplierListQuery holds the list filters of suppliers.
type SupplierListQuery struct {
	ListQuery
	ActiveOnly bool `form:"activeOnly"`
}

// ToFilter converts the query to a repository filter.
func (q *SupplierListQuery) ToFilter() supplier.Filter {
	return supplier.Filter{ListFilter: q.ListQuery.ToFilter(), ActiveOnly: q.ActiveOnly}
}
