// Package inventory_repo provides PostgreSQL storage for medicines and the stock ledger.
package inventory_repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
	"medstore/internal/infrastructure/storage/postgres"
)

const (
	medicinesTable    = "medicines"
	transactionsTable = "inventory_transactions"
	entityName        = "medicine"
)

var (
	medicineColumns    = postgres.ExtractDBColumns[inventory.Medicine]()
	transactionColumns = postgres.ExtractDBColumns[inventory.Transaction]()

	medicineSortable = map[string]string{
		"name":      "name",
		"quantity":  "quantity",
		"expiry":    "expiry_date",
		"createdAt": "created_at",
	}
)

// Repo implements inventory.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates a medicine repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

var _ inventory.Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, m *inventory.Medicine) error {
	sql, args, err := postgres.Builder().
		Insert(medicinesTable).
		SetMap(postgres.StructToMap(m)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "create medicine", entityName, m.ID)
	}
	return nil
}

func selectMedicine(orgID, medicineID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(medicineColumns...).
		From(medicinesTable).
		Where(sq.Eq{"organization_id": orgID, "id": medicineID})
}

func (r *Repo) GetByID(ctx context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error) {
	return r.get(ctx, selectMedicine(orgID, medicineID), medicineID)
}

func (r *Repo) GetForUpdate(ctx context.Context, orgID, medicineID id.ID) (*inventory.Medicine, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, apperror.NewInternal(fmt.Errorf("lock medicine %s outside transaction", medicineID))
	}
	return r.get(ctx, selectMedicine(orgID, medicineID).Suffix("FOR UPDATE"), medicineID)
}

func (r *Repo) get(ctx context.Context, q sq.SelectBuilder, medicineID id.ID) (*inventory.Medicine, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m inventory.Medicine
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		return nil, postgres.MapError(err, "get medicine", entityName, medicineID)
	}
	return &m, nil
}

func (r *Repo) UpdateQuantity(ctx context.Context, orgID, medicineID id.ID, quantity int, at time.Time) error {
	sql, args, err := postgres.Builder().
		Update(medicinesTable).
		Set("quantity", quantity).
		Set("updated_at", at).
		Where(sq.Eq{"organization_id": orgID, "id": medicineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, "update medicine quantity", medicineID, sql, args)
}

func (r *Repo) SetActive(ctx context.Context, orgID, medicineID id.ID, active bool) error {
	sql, args, err := postgres.Builder().
		Update(medicinesTable).
		Set("is_active", active).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"organization_id": orgID, "id": medicineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, "set medicine active", medicineID, sql, args)
}

func (r *Repo) execOne(ctx context.Context, op string, medicineID id.ID, sql string, args []any) error {
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, op, entityName, medicineID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, medicineID.String())
	}
	return nil
}

func listQuery(orgID id.ID, filter inventory.MedicineFilter) sq.SelectBuilder {
	q := postgres.Builder().
		Select(medicineColumns...).
		From(medicinesTable).
		Where(sq.Eq{"organization_id": orgID})

	if !filter.IncludeInactive {
		q = q.Where(sq.Eq{"is_active": true})
	}
	if filter.LowStockOnly {
		q = q.Where("quantity <= low_stock_threshold")
	}
	if filter.SupplierID != nil {
		q = q.Where(sq.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Search != "" {
		pattern := postgres.SearchPattern(filter.Search)
		q = q.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"generic_name": pattern},
			sq.ILike{"batch_number": pattern},
		})
	}
	return q
}

func (r *Repo) List(ctx context.Context, orgID id.ID, filter inventory.MedicineFilter) (domain.ListResult[inventory.Medicine], error) {
	orderBy, err := postgres.ParseOrderBy(filter.OrderBy, medicineSortable, "name ASC, id ASC")
	if err != nil {
		return domain.ListResult[inventory.Medicine]{}, err
	}
	return postgres.SelectPage[inventory.Medicine](ctx, r.txm.GetQuerier(ctx), listQuery(orgID, filter), filter.ListFilter, orderBy, "list medicines")
}
