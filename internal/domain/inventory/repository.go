package inventory

import (
	"context"
	"time"

	"medstore/internal/core/id"
	"medstore/internal/domain"
)

// Repository persists medicines and their ledger. Every method is scoped by organization.
type Repository interface {
	Create(ctx context.Context, m *Medicine) error

	// GetByID returns NotFound when the medicine is absent or owned by another organization.
	GetByID(ctx context.Context, orgID, medicineID id.ID) (*Medicine, error)

	// GetForUpdate loads the row with SELECT ... FOR UPDATE. Must run inside a transaction.
	GetForUpdate(ctx context.Context, orgID, medicineID id.ID) (*Medicine, error)

	UpdateQuantity(ctx context.Context, orgID, medicineID id.ID, quantity int, at time.Time) error
	SetActive(ctx context.Context, orgID, medicineID id.ID, active bool) error
	List(ctx context.Context, orgID id.ID, filter MedicineFilter) (domain.ListResult[Medicine], error)

	AppendTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, orgID, medicineID id.ID, filter domain.ListFilter) (domain.ListResult[Transaction], error)
}

// MedicineFilter narrows medicine listings.
type MedicineFilter struct {
	domain.ListFilter

	LowStockOnly    bool
	SupplierID      *id.ID
	IncludeInactive bool
}
