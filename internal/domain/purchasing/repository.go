package purchasing

import (
	"context"
	"time"

	"medstore/internal/core/id"
	"medstore/internal/domain"
)

// Repository persists purchase orders with their lines and receipt log.
// Every method is scoped by organization; foreign or missing orders are NotFound.
type Repository interface {
	// Create inserts the header and all lines.
	Create(ctx context.Context, o *PurchaseOrder) error

	// GetByID returns header and lines.
	GetByID(ctx context.Context, orgID, orderID id.ID) (*PurchaseOrder, error)

	// GetForUpdate locks the header row (SELECT ... FOR UPDATE) and loads lines.
	// Must run inside a transaction.
	GetForUpdate(ctx context.Context, orgID, orderID id.ID) (*PurchaseOrder, error)

	// Update writes header fields (status, totals, approval, timestamps).
	Update(ctx context.Context, o *PurchaseOrder) error

	// ReplaceItems deletes the order's lines and inserts o.Items.
	ReplaceItems(ctx context.Context, o *PurchaseOrder) error

	AddReceivedQuantity(ctx context.Context, orgID, itemID id.ID, quantity int) error

	// Delete removes lines, then the header.
	Delete(ctx context.Context, orgID, orderID id.ID) error

	List(ctx context.Context, orgID id.ID, filter Filter) (domain.ListResult[PurchaseOrder], error)

	AppendReceipts(ctx context.Context, receipts []Receipt) error
	ListReceipts(ctx context.Context, orgID, orderID id.ID) ([]Receipt, error)
}

// Filter narrows order listings. Items are not loaded for listings.
type Filter struct {
	domain.ListFilter

	Status     *Status
	SupplierID *id.ID
	FromDate   *time.Time
	ToDate     *time.Time
}

// Receipt is one immutable row of the goods-received log.
type Receipt struct {
	ID               id.ID     `db:"id" json:"id"`
	OrganizationID   id.ID     `db:"organization_id" json:"-"`
	PurchaseOrderID  id.ID     `db:"purchase_order_id" json:"purchaseOrderId"`
	MedicineID       id.ID     `db:"medicine_id" json:"medicineId"`
	ReceivedQuantity int       `db:"received_quantity" json:"receivedQuantity"`
	ReceivedBy       string    `db:"received_by" json:"receivedBy"`
	ReceivedAt       time.Time `db:"received_at" json:"receivedAt"`
}
