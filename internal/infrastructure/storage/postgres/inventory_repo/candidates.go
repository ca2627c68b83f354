package inventory_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain/reorder"
	"medstore/internal/infrastructure/storage/postgres"
)

var _ reorder.Source = (*Repo)(nil)

func candidatesQuery(orgID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(
			"m.id AS medicine_id",
			"m.name AS medicine_name",
			"m.quantity",
			"m.low_stock_threshold",
			"m.cost_price",
			"s.id AS supplier_id",
			"s.code AS supplier_code",
			"s.name AS supplier_name",
			"s.payment_terms AS supplier_payment_terms",
			"s.is_active AS supplier_active",
		).
		From(medicinesTable+" m").
		LeftJoin("suppliers s ON s.id = m.supplier_id AND s.organization_id = m.organization_id").
		Where(sq.Eq{"m.organization_id": orgID, "m.is_active": true}).
		Where("m.quantity <= m.low_stock_threshold").
		OrderBy("m.name", "m.id")
}

// LowStockCandidates lists active medicines at or below threshold with their supplier.
func (r *Repo) LowStockCandidates(ctx context.Context, orgID id.ID) ([]reorder.Candidate, error) {
	sql, args, err := candidatesQuery(orgID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []reorder.Candidate
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list reorder candidates", err)
	}
	return out, nil
}
