package purchasing_repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/types"
	"medstore/internal/domain"
	"medstore/internal/domain/purchasing"
	"medstore/internal/infrastructure/storage/postgres"
)

func TestOrderListQuery(t *testing.T) {
	orgID := id.New()
	status := purchasing.StatusApproved
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   purchasing.Filter
		contains []string
		args     int
	}{
		{
			name:     "organization only",
			contains: []string{"FROM purchase_orders WHERE organization_id = $1"},
			args:     1,
		},
		{
			name:     "status and date",
			filter:   purchasing.Filter{Status: &status, FromDate: &from},
			contains: []string{"status = $2", "order_date >= $3"},
			args:     3,
		},
		{
			name:     "search",
			filter:   purchasing.Filter{ListFilter: domain.ListFilter{Search: "PO-2026"}},
			contains: []string{"(po_number ILIKE $2 OR notes ILIKE $3)"},
			args:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := listQuery(orgID, tt.filter).ToSql()
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
			assert.Len(t, args, tt.args)
			assert.Equal(t, orgID, args[0])
		})
	}
}

func TestLockAndLineQueries(t *testing.T) {
	orgID, orderID := id.New(), id.New()

	sql, _, err := selectOrder(orgID, orderID).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM purchase_orders WHERE id = $1 AND organization_id = $2")
	assert.True(t, strings.HasSuffix(sql, " FOR UPDATE"))

	sql, args, err := selectItems(orgID, orderID).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE organization_id = $1 AND purchase_order_id = $2 ORDER BY line_no")
	assert.Equal(t, []any{orgID, orderID}, args)

	sql, args, err = addReceivedQuery(orgID, id.New(), 7).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE purchase_order_items SET received_quantity = received_quantity + $1 WHERE id = $2 AND organization_id = $3", sql)
	assert.Equal(t, 7, args[0])
}

func TestUpdateKeepsImmutableColumns(t *testing.T) {
	o := purchasing.NewPurchaseOrder(id.New(), id.New(), "u-1")
	o.PONumber = "PO-2026-00001"
	o.TotalAmount = types.MustMoney("66")

	data := postgres.Without(postgres.StructToMap(o), immutableOrderColumns...)
	for _, col := range immutableOrderColumns {
		assert.NotContains(t, data, col)
	}
	assert.Contains(t, data, "status")
	assert.Contains(t, data, "total_amount")
	assert.NotContains(t, data, "Items")
}

func TestReceiptRowsFollowColumnOrder(t *testing.T) {
	r := purchasing.Receipt{
		ID:               id.New(),
		OrganizationID:   id.New(),
		PurchaseOrderID:  id.New(),
		MedicineID:       id.New(),
		ReceivedQuantity: 12,
		ReceivedBy:       "u-1",
		ReceivedAt:       time.Now().UTC(),
	}

	rows := receiptRows([]purchasing.Receipt{r})
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(receiptColumns))
	for i, col := range receiptColumns {
		if col == "received_quantity" {
			assert.Equal(t, 12, rows[0][i])
		}
		if col == "purchase_order_id" {
			assert.Equal(t, r.PurchaseOrderID, rows[0][i])
		}
	}
}

func TestAppendReceiptsRequiresTransaction(t *testing.T) {
	repo := New(postgres.NewTxManagerFromRawPool(nil))

	err := repo.AppendReceipts(context.Background(), []purchasing.Receipt{{ID: id.New()}})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))

	assert.NoError(t, repo.AppendReceipts(context.Background(), nil))
}
