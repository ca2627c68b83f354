package supplier

import (
	"context"

	"medstore/internal/core/id"
	"medstore/internal/domain"
)

// Repository persists suppliers. Every method is scoped by organization.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, orgID, supplierID id.ID) (*Supplier, error)
	Exists(ctx context.Context, orgID, supplierID id.ID) (bool, error)
	ExistsByCode(ctx context.Context, orgID id.ID, code string) (bool, error)
	Update(ctx context.Context, s *Supplier) error
	SetActive(ctx context.Context, orgID, supplierID id.ID, active bool) error
	Delete(ctx context.Context, orgID, supplierID id.ID) error

	// IsReferenced reports whether any purchase order points at the supplier.
	IsReferenced(ctx context.Context, orgID, supplierID id.ID) (bool, error)

	List(ctx context.Context, orgID id.ID, filter Filter) (domain.ListResult[Supplier], error)
}

// Filter narrows supplier listings.
type Filter struct {
	domain.ListFilter

	ActiveOnly bool
}
