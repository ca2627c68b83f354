package purchasing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
)

func (f *fixture) receive(in purchasing.ReceiveInput) (*purchasing.ReceiveResult, error) {
	in.OrganizationID = f.orgID
	in.ActorID = actor
	return f.orders.Receive(f.ctx, in)
}

func TestReceiveFullOrder(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Paracetamol 500mg", 5)
	o := f.approved(t, line(m, 20, "2"))

	res, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)

	assert.Equal(t, 25, f.store.Stock(m.ID))
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Equal(t, purchasing.CompletenessComplete, res.Completeness)
	require.IsType(t, purchasing.Success{}, res.Outcome)
	require.Len(t, res.Outcome.Applied(), 1)
	assert.Equal(t, 5, res.Outcome.Applied()[0].PreviousStock)
	assert.Equal(t, 25, res.Outcome.Applied()[0].NewStock)
	assert.NotNil(t, res.Order.ReceivedAt)

	txs := f.store.Transactions(m.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, inventory.TransactionIncrement, txs[0].Type)
	assert.Equal(t, 20, txs[0].Quantity)
	assert.Equal(t, 5, txs[0].QuantityBefore)
	assert.Equal(t, 25, txs[0].QuantityAfter)
	assert.Equal(t, inventory.ReferencePurchaseOrder, txs[0].ReferenceType)
	require.NotNil(t, txs[0].ReferenceID)
	assert.Equal(t, o.ID, *txs[0].ReferenceID)

	receipts, err := f.orders.ListReceipts(f.ctx, f.orgID, o.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 20, receipts[0].ReceivedQuantity)

	stored, err := f.orders.Get(f.ctx, f.orgID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Items[0].ReceivedQuantity)
}

func TestReceiveFromOrdered(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Ibuprofen", 0)
	o := f.approved(t, line(m, 10, "1"))
	_, err := f.orders.MarkOrdered(f.ctx, f.orgID, o.ID, actor)
	require.NoError(t, err)

	res, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Equal(t, 10, f.store.Stock(m.ID))
}

func TestReceiveQuantities(t *testing.T) {
	tests := []struct {
		name         string
		received     int
		wantStock    int
		completeness purchasing.Completeness
	}{
		{"short delivery", 8, 13, purchasing.CompletenessShort},
		{"exact delivery", 20, 25, purchasing.CompletenessComplete},
		{"excess delivery", 30, 35, purchasing.CompletenessExcess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, purchasing.Config{})
			m := f.medicine(t, "Amoxicillin", 5)
			o := f.approved(t, line(m, 20, "1"))

			res, err := f.receive(purchasing.ReceiveInput{
				OrderID: o.ID,
				Items:   []purchasing.ReceiveItem{{MedicineID: m.ID, ReceivedQuantity: tt.received}},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStock, f.store.Stock(m.ID))
			assert.Equal(t, tt.completeness, res.Completeness)
			assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
		})
	}
}

func TestReceiveTracksPartialReceipts(t *testing.T) {
	f := newFixture(t, purchasing.Config{TrackPartialReceipts: true})
	m := f.medicine(t, "Cetirizine", 0)
	o := f.approved(t, line(m, 20, "1"))

	res, err := f.receive(purchasing.ReceiveInput{
		OrderID: o.ID,
		Items:   []purchasing.ReceiveItem{{MedicineID: m.ID, ReceivedQuantity: 8}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusPartiallyReceived, res.Order.Status)

	_, err = f.orders.Cancel(f.ctx, f.orgID, o.ID, actor, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	res, err = f.receive(purchasing.ReceiveInput{
		OrderID: o.ID,
		Items:   []purchasing.ReceiveItem{{MedicineID: m.ID, ReceivedQuantity: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Equal(t, purchasing.CompletenessComplete, res.Completeness)
	assert.Equal(t, 20, f.store.Stock(m.ID))
	assert.Len(t, f.store.Transactions(m.ID), 2)
}

func TestReceiveDefaultsToOutstandingQuantity(t *testing.T) {
	f := newFixture(t, purchasing.Config{TrackPartialReceipts: true})
	para := f.medicine(t, "Paracetamol", 0)
	ibu := f.medicine(t, "Ibuprofen", 0)
	o := f.approved(t, line(para, 20, "1"), line(ibu, 10, "1"))

	res, err := f.receive(purchasing.ReceiveInput{
		OrderID: o.ID,
		Items: []purchasing.ReceiveItem{
			{MedicineID: para.ID, ReceivedQuantity: 8},
			{MedicineID: ibu.ID, ReceivedQuantity: 10},
		},
	})
	require.NoError(t, err)
	require.Equal(t, purchasing.StatusPartiallyReceived, res.Order.Status)

	res, err = f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Equal(t, purchasing.CompletenessComplete, res.Completeness)
	require.Len(t, res.Outcome.Applied(), 1, "complete lines are skipped")
	assert.Equal(t, para.ID, res.Outcome.Applied()[0].MedicineID)
	assert.Equal(t, 12, res.Outcome.Applied()[0].Quantity)

	assert.Equal(t, 20, f.store.Stock(para.ID))
	assert.Equal(t, 10, f.store.Stock(ibu.ID))
	assert.Len(t, f.store.Transactions(ibu.ID), 1)
}

func TestReceiveTwiceIsRejected(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Metformin", 5)
	o := f.approved(t, line(m, 20, "1"))

	_, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)

	_, err = f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.Equal(t, 25, f.store.Stock(m.ID), "second receipt must not change stock")
	assert.Len(t, f.store.Receipts(), 1)
}

func TestReceiveRequiresApproval(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Aspirin", 0)
	o := f.create(t, line(m, 5, "1"))

	_, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.Equal(t, 0, f.store.Stock(m.ID))
}

func TestReceiveRejectsNegativeQuantity(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Aspirin", 0)
	o := f.approved(t, line(m, 5, "1"))

	_, err := f.receive(purchasing.ReceiveInput{
		OrderID: o.ID,
		Items:   []purchasing.ReceiveItem{{MedicineID: m.ID, ReceivedQuantity: -1}},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestReceiveOrderWithoutLines(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	o := purchasing.NewPurchaseOrder(f.orgID, f.supplier.ID, actor)
	o.PONumber = "PO-LEGACY-1"
	o.Status = purchasing.StatusApproved
	require.NoError(t, f.store.Orders().Create(f.ctx, o))

	_, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNoItemsToReceive, appErr.Code)
	assert.Equal(t, "no items to receive", appErr.Message)

	stored, err := f.orders.Get(f.ctx, f.orgID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusApproved, stored.Status)
}

func TestReceiveMissingMedicine(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Omeprazole", 5)
	o := f.approved(t, line(m, 20, "1"))
	ghost := id.New()

	res, err := f.receive(purchasing.ReceiveInput{
		OrderID: o.ID,
		Items: []purchasing.ReceiveItem{
			{MedicineID: m.ID, ReceivedQuantity: 20},
			{MedicineID: ghost, ReceivedQuantity: 4},
		},
	})
	require.NoError(t, err)

	require.IsType(t, purchasing.PartialSuccess{}, res.Outcome)
	require.Len(t, res.Outcome.Applied(), 1)
	require.Len(t, res.Outcome.Failed(), 1)
	assert.Equal(t, ghost, res.Outcome.Failed()[0].MedicineID)
	assert.Equal(t, "medicine not found", res.Outcome.Failed()[0].Error)

	assert.Equal(t, 25, f.store.Stock(m.ID))
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Len(t, f.store.Receipts(), 1, "only applied lines are logged")
}

func TestReceiveAbortOnLineFailure(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Loratadine", 5)
	o := f.approved(t, line(m, 20, "1"))

	_, err := f.receive(purchasing.ReceiveInput{
		OrderID:            o.ID,
		AbortOnLineFailure: true,
		Items: []purchasing.ReceiveItem{
			{MedicineID: m.ID, ReceivedQuantity: 20},
			{MedicineID: id.New(), ReceivedQuantity: 4},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeReceiveLineFailed))

	assert.Equal(t, 5, f.store.Stock(m.ID), "whole receipt rolled back")
	assert.Empty(t, f.store.Transactions(m.ID))
	assert.Empty(t, f.store.Receipts())

	stored, err := f.orders.Get(f.ctx, f.orgID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusApproved, stored.Status)
	assert.Zero(t, stored.Items[0].ReceivedQuantity)
}

func TestReceiveLineRollsBackToSavepoint(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	a := f.medicine(t, "Vitamin C", 1)
	b := f.medicine(t, "Vitamin D", 2)
	o := f.approved(t, line(a, 10, "1"), line(b, 10, "1"))

	failing := o.ItemByMedicine(b.ID).ID
	f.store.Fail = func(op string, key id.ID) error {
		if op == "order.AddReceivedQuantity" && key == failing {
			return apperror.NewDatabase("add received quantity", assert.AnError)
		}
		return nil
	}

	res, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)

	require.IsType(t, purchasing.PartialSuccess{}, res.Outcome)
	assert.Equal(t, "stock update failed", res.Outcome.Failed()[0].Error)

	assert.Equal(t, 11, f.store.Stock(a.ID))
	assert.Equal(t, 2, f.store.Stock(b.ID), "stock increment undone with its line")
	assert.Empty(t, f.store.Transactions(b.ID))
	assert.Equal(t, purchasing.CompletenessShort, res.Completeness)
}

func TestReceiveAllLinesFail(t *testing.T) {
	f := newFixture(t, purchasing.Config{})
	m := f.medicine(t, "Insulin", 0)
	o := f.approved(t, line(m, 10, "1"))

	f.store.Fail = func(op string, _ id.ID) error {
		if op == "medicine.UpdateQuantity" {
			return apperror.NewDatabase("update quantity", assert.AnError)
		}
		return nil
	}

	res, err := f.receive(purchasing.ReceiveInput{OrderID: o.ID})
	require.NoError(t, err)
	require.IsType(t, purchasing.Failure{}, res.Outcome)
	assert.Empty(t, res.Outcome.Applied())
	assert.Equal(t, purchasing.StatusReceived, res.Order.Status)
	assert.Equal(t, 0, f.store.Stock(m.ID))
	assert.Empty(t, f.store.Receipts())
}
