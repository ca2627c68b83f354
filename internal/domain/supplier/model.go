// Package supplier provides the supplier directory referenced by purchase orders.
package supplier

import (
	"context"
	"strings"

	"medstore/internal/core/apperror"
	"medstore/internal/core/entity"
	"medstore/internal/core/id"
	"medstore/internal/core/types"
)

// DefaultPaymentTerms is used when a supplier has no payment terms of its own.
const DefaultPaymentTerms = 7

// Supplier is a vendor the store buys medicines from.
type Supplier struct {
	entity.BaseEntity

	// Code is generated ("SUP-00001") unless given; unique within the organization
	Code string `db:"code" json:"code"`

	Name          string  `db:"name" json:"name"`
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	TaxNumber     *string `db:"tax_number" json:"taxNumber,omitempty"`

	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`

	// PaymentTerms in days; also drives the expected delivery of generated orders
	PaymentTerms int `db:"payment_terms" json:"paymentTerms"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewSupplier creates an active supplier.
func NewSupplier(orgID id.ID, name string) *Supplier {
	return &Supplier{
		BaseEntity:  entity.NewBaseEntity(orgID),
		Name:        strings.TrimSpace(name),
		CreditLimit: types.Zero(),
		IsActive:    true,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(_ context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("supplier name is required").WithDetail("field", "name")
	}
	if s.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").WithDetail("field", "creditLimit")
	}
	if s.PaymentTerms < 0 {
		return apperror.NewValidation("payment terms cannot be negative").WithDetail("field", "paymentTerms")
	}
	return nil
}

// PaymentTermsDays returns the supplier's terms, or fallback when none are set.
func (s *Supplier) PaymentTermsDays(fallback int) int {
	if s.PaymentTerms > 0 {
		return s.PaymentTerms
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultPaymentTerms
}

func (s *Supplier) snapshot() map[string]any {
	return map[string]any{
		"name":          s.Name,
		"contactPerson": deref(s.ContactPerson),
		"phone":         deref(s.Phone),
		"email":         deref(s.Email),
		"address":       deref(s.Address),
		"taxNumber":     deref(s.TaxNumber),
		"creditLimit":   s.CreditLimit.String(),
		"paymentTerms":  s.PaymentTerms,
		"isActive":      s.IsActive,
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
