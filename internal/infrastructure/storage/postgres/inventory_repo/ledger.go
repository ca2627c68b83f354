package inventory_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
	"medstore/internal/infrastructure/storage/postgres"
)

func (r *Repo) AppendTransaction(ctx context.Context, t *inventory.Transaction) error {
	sql, args, err := postgres.Builder().
		Insert(transactionsTable).
		SetMap(postgres.StructToMap(t)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "append inventory transaction", "inventory transaction", t.ID)
	}
	return nil
}

func transactionsQuery(orgID, medicineID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(transactionColumns...).
		From(transactionsTable).
		Where(sq.Eq{"organization_id": orgID, "medicine_id": medicineID})
}

// ListTransactions pages the ledger of one medicine, newest first.
func (r *Repo) ListTransactions(ctx context.Context, orgID, medicineID id.ID, filter domain.ListFilter) (domain.ListResult[inventory.Transaction], error) {
	return postgres.SelectPage[inventory.Transaction](ctx, r.txm.GetQuerier(ctx),
		transactionsQuery(orgID, medicineID), filter, "created_at DESC, id DESC", "list inventory transactions")
}
