package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/types"
)

func newTestOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	return NewPurchaseOrder(id.New(), id.New(), "user-1")
}

func TestRecalculateTotals(t *testing.T) {
	o := newTestOrder(t)
	o.TaxPercent = types.MustMoney("10")
	require.NoError(t, o.SetItems([]LineInput{
		{MedicineID: id.New(), Quantity: 10, UnitCost: types.MustMoney("2.50")},
		{MedicineID: id.New(), Quantity: 5, UnitCost: types.MustMoney("7")},
	}))

	assert.True(t, o.Subtotal.Equal(types.MustMoney("60")), "subtotal %s", o.Subtotal)
	assert.True(t, o.TaxAmount.Equal(types.MustMoney("6")), "tax %s", o.TaxAmount)
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("66")), "total %s", o.TotalAmount)
	assert.True(t, o.Items[0].TotalCost.Equal(types.MustMoney("25")))
	assert.Equal(t, 1, o.Items[0].LineNo)
	assert.Equal(t, 2, o.Items[1].LineNo)

	o.DiscountAmount = types.MustMoney("16")
	o.Recalculate()
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("50")))
}

func TestSetItems(t *testing.T) {
	med := id.New()

	tests := []struct {
		name    string
		lines   []LineInput
		wantErr bool
		items   int
		qty     int
	}{
		{name: "empty", lines: nil, wantErr: true},
		{name: "zero quantity", lines: []LineInput{{MedicineID: med, Quantity: 0, UnitCost: types.MustMoney("1")}}, wantErr: true},
		{name: "negative cost", lines: []LineInput{{MedicineID: med, Quantity: 1, UnitCost: types.MustMoney("-1")}}, wantErr: true},
		{name: "missing medicine", lines: []LineInput{{Quantity: 1, UnitCost: types.MustMoney("1")}}, wantErr: true},
		{
			name: "duplicates merged",
			lines: []LineInput{
				{MedicineID: med, Quantity: 3, UnitCost: types.MustMoney("1.5")},
				{MedicineID: med, Quantity: 4, UnitCost: types.MustMoney("1.50")},
			},
			items: 1,
			qty:   7,
		},
		{
			name: "duplicates with different cost",
			lines: []LineInput{
				{MedicineID: med, Quantity: 3, UnitCost: types.MustMoney("1.5")},
				{MedicineID: med, Quantity: 4, UnitCost: types.MustMoney("2")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			err := o.SetItems(tt.lines)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, o.Items, tt.items)
			assert.Equal(t, tt.qty, o.Items[0].Quantity)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *PurchaseOrder {
		o := newTestOrder(t)
		require.NoError(t, o.SetItems([]LineInput{{MedicineID: id.New(), Quantity: 2, UnitCost: types.MustMoney("10")}}))
		return o
	}

	tests := []struct {
		name   string
		mutate func(o *PurchaseOrder)
		field  string
	}{
		{"no supplier", func(o *PurchaseOrder) { o.SupplierID = id.Nil() }, "supplierId"},
		{"no items", func(o *PurchaseOrder) { o.Items = nil }, "items"},
		{"tax above 100", func(o *PurchaseOrder) { o.TaxPercent = types.MustMoney("101") }, "taxPercent"},
		{"negative discount", func(o *PurchaseOrder) { o.DiscountAmount = types.MustMoney("-1") }, "discountAmount"},
		{"discount above total", func(o *PurchaseOrder) {
			o.DiscountAmount = types.MustMoney("25")
			o.Recalculate()
		}, "discountAmount"},
		{"delivery before order", func(o *PurchaseOrder) {
			d := o.OrderDate.Add(-24 * time.Hour)
			o.ExpectedDeliveryDate = &d
		}, "expectedDeliveryDate"},
	}

	assert.NoError(t, valid().Validate(context.Background()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(o)
			err := o.Validate(context.Background())
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestApproveDefaultsToTotal(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.SetItems([]LineInput{{MedicineID: id.New(), Quantity: 4, UnitCost: types.MustMoney("2.5")}}))

	require.NoError(t, o.Approve("manager", nil, nil))
	assert.Equal(t, StatusApproved, o.Status)
	assert.True(t, o.ApprovedAmount.Valid)
	assert.True(t, o.ApprovedAmount.Decimal.Equal(types.MustMoney("10")))
	require.NotNil(t, o.ApprovedAt)

	approvedAt := *o.ApprovedAt
	o.Touch()
	assert.Equal(t, approvedAt, *o.ApprovedAt)

	err := o.Approve("manager", nil, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
}

func TestMarkOrderedRequiresApproval(t *testing.T) {
	o := newTestOrder(t)
	err := o.MarkOrdered()
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.Nil(t, o.OrderedAt)
}

func TestResetApproval(t *testing.T) {
	o := newTestOrder(t)
	notes := "ok"
	require.NoError(t, o.SetItems([]LineInput{{MedicineID: id.New(), Quantity: 1, UnitCost: types.MustMoney("1")}}))
	require.NoError(t, o.Approve("manager", nil, &notes))

	o.resetApproval()
	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.ApprovedAmount.Valid)
	assert.Nil(t, o.ApprovedBy)
	assert.Nil(t, o.ApprovalNotes)
}

func TestBuildReceiptPlan(t *testing.T) {
	a, b, extra := id.New(), id.New(), id.New()
	o := newTestOrder(t)
	require.NoError(t, o.SetItems([]LineInput{
		{MedicineID: a, Quantity: 20, UnitCost: types.MustMoney("1")},
		{MedicineID: b, Quantity: 5, UnitCost: types.MustMoney("1")},
	}))

	t.Run("defaults to ordered quantities", func(t *testing.T) {
		plan := buildReceiptPlan(o, nil)
		assert.Equal(t, []receiptLine{{a, 20}, {b, 5}}, plan)
	})

	t.Run("zero quantities fall back to order", func(t *testing.T) {
		plan := buildReceiptPlan(o, []ReceiveItem{{MedicineID: a, ReceivedQuantity: 0}})
		assert.Equal(t, []receiptLine{{a, 20}, {b, 5}}, plan)
	})

	t.Run("overrides keep line order and append extras", func(t *testing.T) {
		plan := buildReceiptPlan(o, []ReceiveItem{
			{MedicineID: extra, ReceivedQuantity: 3},
			{MedicineID: b, ReceivedQuantity: 2},
			{MedicineID: b, ReceivedQuantity: 1},
		})
		assert.Equal(t, []receiptLine{{b, 3}, {extra, 3}}, plan)
	})
}

func TestMeasure(t *testing.T) {
	a := id.New()
	o := newTestOrder(t)
	require.NoError(t, o.SetItems([]LineInput{{MedicineID: a, Quantity: 10, UnitCost: types.MustMoney("1")}}))

	o.Items[0].ReceivedQuantity = 4
	assert.Equal(t, CompletenessShort, measure(o, nil))

	o.Items[0].ReceivedQuantity = 10
	assert.Equal(t, CompletenessComplete, measure(o, nil))
	assert.Equal(t, CompletenessExcess, measure(o, []LineOutcome{{MedicineID: id.New(), Quantity: 1}}))

	o.Items[0].ReceivedQuantity = 12
	assert.Equal(t, CompletenessExcess, measure(o, nil))
}
