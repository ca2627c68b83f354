// Package supplier_repo provides the PostgreSQL supplier directory.
package supplier_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/supplier"
	"medstore/internal/infrastructure/storage/postgres"
)

const (
	tableName  = "suppliers"
	entityName = "supplier"
)

var (
	columns = postgres.ExtractDBColumns[supplier.Supplier]()

	sortable = map[string]string{
		"name":      "name",
		"code":      "code",
		"createdAt": "created_at",
	}
)

// Repo implements supplier.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates a supplier repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

var _ supplier.Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, s *supplier.Supplier) error {
	sql, args, err := postgres.Builder().
		Insert(tableName).
		SetMap(postgres.StructToMap(s)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		mapped := postgres.MapError(err, "create supplier", entityName, s.ID)
		if apperror.HasCode(mapped, apperror.CodeConflict) {
			return apperror.NewDuplicate(entityName, "code", s.Code)
		}
		return mapped
	}
	return nil
}

func selectByID(orgID, supplierID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(columns...).
		From(tableName).
		Where(sq.Eq{"organization_id": orgID, "id": supplierID})
}

func (r *Repo) GetByID(ctx context.Context, orgID, supplierID id.ID) (*supplier.Supplier, error) {
	sql, args, err := selectByID(orgID, supplierID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s supplier.Supplier
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		return nil, postgres.MapError(err, "get supplier", entityName, supplierID)
	}
	return &s, nil
}

func (r *Repo) Exists(ctx context.Context, orgID, supplierID id.ID) (bool, error) {
	return r.exists(ctx, "supplier exists", sq.Eq{"organization_id": orgID, "id": supplierID})
}

func (r *Repo) ExistsByCode(ctx context.Context, orgID id.ID, code string) (bool, error) {
	return r.exists(ctx, "supplier code exists", sq.Eq{"organization_id": orgID, "code": code})
}

func (r *Repo) exists(ctx context.Context, op string, where sq.Eq) (bool, error) {
	sql, args, err := postgres.Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(tableName).
		Where(where).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var found bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, apperror.NewDatabase(op, err)
	}
	return found, nil
}

func (r *Repo) Update(ctx context.Context, s *supplier.Supplier) error {
	data := postgres.Without(postgres.StructToMap(s), "id", "organization_id", "created_at")
	sql, args, err := postgres.Builder().
		Update(tableName).
		SetMap(data).
		Where(sq.Eq{"organization_id": s.OrganizationID, "id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, "update supplier", s.ID, sql, args)
}

func (r *Repo) SetActive(ctx context.Context, orgID, supplierID id.ID, active bool) error {
	sql, args, err := postgres.Builder().
		Update(tableName).
		Set("is_active", active).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"organization_id": orgID, "id": supplierID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, "set supplier active", supplierID, sql, args)
}

func (r *Repo) Delete(ctx context.Context, orgID, supplierID id.ID) error {
	sql, args, err := postgres.Builder().
		Delete(tableName).
		Where(sq.Eq{"organization_id": orgID, "id": supplierID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return r.execOne(ctx, "delete supplier", supplierID, sql, args)
}

func (r *Repo) execOne(ctx context.Context, op string, supplierID id.ID, sql string, args []any) error {
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, op, entityName, supplierID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, supplierID.String())
	}
	return nil
}

func (r *Repo) IsReferenced(ctx context.Context, orgID, supplierID id.ID) (bool, error) {
	sql, args, err := postgres.Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From("purchase_orders").
		Where(sq.Eq{"organization_id": orgID, "supplier_id": supplierID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var found bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, apperror.NewDatabase("supplier referenced", err)
	}
	return found, nil
}

func listQuery(orgID id.ID, filter supplier.Filter) sq.SelectBuilder {
	q := postgres.Builder().
		Select(columns...).
		From(tableName).
		Where(sq.Eq{"organization_id": orgID})

	if filter.ActiveOnly {
		q = q.Where(sq.Eq{"is_active": true})
	}
	if filter.Search != "" {
		pattern := postgres.SearchPattern(filter.Search)
		q = q.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"code": pattern},
		})
	}
	return q
}

func (r *Repo) List(ctx context.Context, orgID id.ID, filter supplier.Filter) (domain.ListResult[supplier.Supplier], error) {
	orderBy, err := postgres.ParseOrderBy(filter.OrderBy, sortable, "name ASC, id ASC")
	if err != nil {
		return domain.ListResult[supplier.Supplier]{}, err
	}
	return postgres.SelectPage[supplier.Supplier](ctx, r.txm.GetQuerier(ctx), listQuery(orgID, filter), filter.ListFilter, orderBy, "list suppliers")
}
