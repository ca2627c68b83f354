package purchasing_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain/purchasing"
	"medstore/internal/infrastructure/storage/postgres"
)

func receiptRows(receipts []purchasing.Receipt) [][]any {
	rows := make([][]any, 0, len(receipts))
	for i := range receipts {
		m := postgres.StructToMap(&receipts[i])
		row := make([]any, len(receiptColumns))
		for j, col := range receiptColumns {
			row[j] = m[col]
		}
		rows = append(rows, row)
	}
	return rows
}

// AppendReceipts copies the receipt rows in one round-trip. Must run inside a transaction.
func (r *Repo) AppendReceipts(ctx context.Context, receipts []purchasing.Receipt) error {
	n, err := r.batch.CopyFromSlice(ctx, receiptsTable, receiptColumns, receiptRows(receipts))
	if err != nil {
		return postgres.MapError(err, "append purchase order receipts", entityName, nil)
	}
	if int(n) != len(receipts) {
		return apperror.NewDatabase("append purchase order receipts",
			fmt.Errorf("copied %d of %d receipt rows", n, len(receipts)))
	}
	return nil
}

func receiptsQuery(orgID, orderID id.ID) sq.SelectBuilder {
	return postgres.Builder().
		Select(receiptColumns...).
		From(receiptsTable).
		Where(sq.Eq{"organization_id": orgID, "purchase_order_id": orderID}).
		OrderBy("received_at", "id")
}

func (r *Repo) ListReceipts(ctx context.Context, orgID, orderID id.ID) ([]purchasing.Receipt, error) {
	sql, args, err := receiptsQuery(orgID, orderID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []purchasing.Receipt{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list purchase order receipts", err)
	}
	return out, nil
}
