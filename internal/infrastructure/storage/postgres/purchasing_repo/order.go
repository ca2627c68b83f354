// Package purchasing_repo provides PostgreSQL storage for purchase orders, their lines
// and the goods-received log.
package purchasing_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/purchasing"
	"medstore/internal/infrastructure/storage/postgres"
)

const (
	ordersTable   = "purchase_orders"
	itemsTable    = "purchase_order_items"
	receiptsTable = "purchase_order_receipts"
	entityName    = "purchase order"
)

var (
	orderColumns   = postgres.ExtractDBColumns[purchasing.PurchaseOrder]()
	itemColumns    = postgres.ExtractDBColumns[purchasing.Item]()
	receiptColumns = postgres.ExtractDBColumns[purchasing.Receipt]()

	// created_at, po_number and created_by never change after insert
	immutableOrderColumns = []string{"id", "organization_id", "created_at", "po_number", "created_by"}

	orderSortable = map[string]string{
		"poNumber":    "po_number",
		"orderDate":   "order_date",
		"totalAmount": "total_amount",
		"status":      "status",
		"createdAt":   "created_at",
	}
)

// Repo implements purchasing.Repository.
type Repo struct {
	txm   *postgres.TxManager
	batch *postgres.BatchInserter
}

// New creates a purchase order repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm, batch: postgres.NewBatchInserter(txm)}
}

var _ purchasing.Repository = (*Repo)(nil)

// Create inserts the header and lines. Must run inside a transaction.
func (r *Repo) Create(ctx context.Context, o *purchasing.PurchaseOrder) error {
	sql, args, err := postgres.Builder().
		Insert(ordersTable).
		SetMap(postgres.StructToMap(o)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		mapped := postgres.MapError(err, "create purchase order", entityName, o.ID)
		if apperror.HasCode(mapped, apperror.CodeConflict) {
			return apperror.NewDuplicate(entityName, "number", o.PONumber)
		}
		return mapped
	}
	return r.insertItems(ctx, o)
}

func (r *Repo) insertItems(ctx context.Context, o *purchasing.PurchaseOrder) error {
	queries := make([]postgres.BatchQuery, 0, len(o.Items))
	for i := range o.Items {
		sql, args, err := postgres.Builder().
			Insert(itemsTable).
			SetMap(postgres.StructToMap(&o.Items[i])).
			ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if err := r.batch.ExecuteBatch(ctx, queries); err != nil {
		return postgres.MapError(err, "insert purchase order items", entityName, o.ID)
	}
	return nil
}

func selectOrder(orgID, orderID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(orderColumns...).
		From(ordersTable).
		Where(sq.Eq{"organization_id": orgID, "id": orderID})
}

func selectItems(orgID, orderID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"organization_id": orgID, "purchase_order_id": orderID}).
		OrderBy("line_no")
}

func (r *Repo) GetByID(ctx context.Context, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	return r.load(ctx, selectOrder(orgID, orderID), orgID, orderID)
}

// GetForUpdate locks the header only; lines are guarded by the header lock.
func (r *Repo) GetForUpdate(ctx context.Context, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, apperror.NewInternal(fmt.Errorf("lock purchase order %s outside transaction", orderID))
	}
	return r.load(ctx, selectOrder(orgID, orderID).Suffix("FOR UPDATE"), orgID, orderID)
}

func (r *Repo) load(ctx context.Context, q sq.SelectBuilder, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	db := r.txm.GetQuerier(ctx)
	var o purchasing.PurchaseOrder
	if err := pgxscan.Get(ctx, db, &o, sql, args...); err != nil {
		return nil, postgres.MapError(err, "get purchase order", entityName, orderID)
	}

	sql, args, err = selectItems(orgID, orderID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}
	if err := pgxscan.Select(ctx, db, &o.Items, sql, args...); err != nil {
		return nil, apperror.NewDatabase("get purchase order items", err)
	}
	return &o, nil
}

func (r *Repo) Update(ctx context.Context, o *purchasing.PurchaseOrder) error {
	data := postgres.Without(postgres.StructToMap(o), immutableOrderColumns...)
	sql, args, err := postgres.Builder().
		Update(ordersTable).
		SetMap(data).
		Where(sq.Eq{"organization_id": o.OrganizationID, "id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "update purchase order", entityName, o.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, o.ID.String())
	}
	return nil
}

func (r *Repo) ReplaceItems(ctx context.Context, o *purchasing.PurchaseOrder) error {
	if err := r.deleteItems(ctx, o.OrganizationID, o.ID); err != nil {
		return err
	}
	return r.insertItems(ctx, o)
}

func (r *Repo) deleteItems(ctx context.Context, orgID, orderID id.ID) error {
	sql, args, err := postgres.Builder().
		Delete(itemsTable).
		Where(sq.Eq{"organization_id": orgID, "purchase_order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "delete purchase order items", entityName, orderID)
	}
	return nil
}

func addReceivedQuery(orgID, itemID id.ID, quantity int) sq.UpdateBuilder {
	return postgres.Builder().
		Update(itemsTable).
		Set("received_quantity", sq.Expr("received_quantity + ?", quantity)).
		Where(sq.Eq{"organization_id": orgID, "id": itemID})
}

func (r *Repo) AddReceivedQuantity(ctx context.Context, orgID, itemID id.ID, quantity int) error {
	sql, args, err := addReceivedQuery(orgID, itemID, quantity).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "add received quantity", "purchase order item", itemID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order item", itemID.String())
	}
	return nil
}

// Delete removes lines, then the header.
func (r *Repo) Delete(ctx context.Context, orgID, orderID id.ID) error {
	if err := r.deleteItems(ctx, orgID, orderID); err != nil {
		return err
	}

	sql, args, err := postgres.Builder().
		Delete(ordersTable).
		Where(sq.Eq{"organization_id": orgID, "id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "delete purchase order", entityName, orderID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, orderID.String())
	}
	return nil
}

func listQuery(orgID id.ID, filter purchasing.Filter) sq.SelectBuilder {
	q := postgres.Builder().
		Select(orderColumns...).
		From(ordersTable).
		Where(sq.Eq{"organization_id": orgID})

	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.SupplierID != nil {
		q = q.Where(sq.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.FromDate != nil {
		q = q.Where(sq.GtOrEq{"order_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(sq.LtOrEq{"order_date": *filter.ToDate})
	}
	if filter.Search != "" {
		pattern := postgres.SearchPattern(filter.Search)
		q = q.Where(sq.Or{
			sq.ILike{"po_number": pattern},
			sq.ILike{"notes": pattern},
		})
	}
	return q
}

// List returns headers only.
func (r *Repo) List(ctx context.Context, orgID id.ID, filter purchasing.Filter) (domain.ListResult[purchasing.PurchaseOrder], error) {
	orderBy, err := postgres.ParseOrderBy(filter.OrderBy, orderSortable, "po_number DESC, id DESC")
	if err != nil {
		return domain.ListResult[purchasing.PurchaseOrder]{}, err
	}
	return postgres.SelectPage[purchasing.PurchaseOrder](ctx, r.txm.GetQuerier(ctx), listQuery(orgID, filter), filter.ListFilter, orderBy, "list purchase orders")
}
