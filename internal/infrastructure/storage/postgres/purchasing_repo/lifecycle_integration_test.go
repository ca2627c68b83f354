//go:build integration

package purchasing_repo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/reorder"
	"medstore/internal/domain/supplier"
	"medstore/internal/infrastructure/numerator"
	"medstore/internal/infrastructure/storage/postgres"
	"medstore/internal/infrastructure/storage/postgres/inventory_repo"
	"medstore/internal/infrastructure/storage/postgres/purchasing_repo"
	"medstore/internal/infrastructure/storage/postgres/supplier_repo"
	"medstore/internal/testutil/pgtest"
)

type stack struct {
	orgID     id.ID
	audit     *postgres.AuditRecorder
	suppliers *supplier.Service
	medicines *inventory.Service
	orders    *purchasing.Service
	reorder   *reorder.Service
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := pgtest.New(t)

	recorder, err := postgres.NewAuditRecorder(db.Pool)
	require.NoError(t, err)

	numbers := numerator.New(db.Pool)
	supplierRepo := supplier_repo.New(db.TxM)
	medicineRepo := inventory_repo.New(db.TxM)

	medicines := inventory.NewService(medicineRepo, supplierRepo, db.TxM, recorder)
	orders := purchasing.NewService(purchasing.Deps{
		Repo:      purchasing_repo.New(db.TxM),
		Suppliers: supplierRepo,
		Medicines: medicines,
		Ledger:    medicines,
		Numerator: numbers,
		TxManager: db.TxM,
		Audit:     recorder,
	}, purchasing.Config{})

	return &stack{
		orgID:     id.New(),
		audit:     recorder,
		suppliers: supplier.NewService(supplierRepo, numbers, db.TxM, recorder),
		medicines: medicines,
		orders:    orders,
		reorder:   reorder.NewService(medicineRepo, orders, db.TxM, reorder.Config{Audit: recorder}),
	}
}

func (s *stack) supplier(t *testing.T, name string) *supplier.Supplier {
	t.Helper()
	sup := supplier.NewSupplier(s.orgID, name)
	sup.PaymentTerms = 10
	require.NoError(t, s.suppliers.Create(context.Background(), "tester", sup))
	return sup
}

func (s *stack) medicine(t *testing.T, name string, qty, threshold int, supplierID *id.ID) *inventory.Medicine {
	t.Helper()
	m := inventory.NewMedicine(s.orgID, name)
	m.Quantity = qty
	m.LowStockThreshold = threshold
	m.CostPrice = decimal.RequireFromString("2.50")
	m.SupplierID = supplierID
	require.NoError(t, s.medicines.Create(context.Background(), "tester", m))
	return m
}

func (s *stack) order(t *testing.T, supplierID id.ID, lines ...purchasing.LineInput) *purchasing.PurchaseOrder {
	t.Helper()
	o, err := s.orders.Create(context.Background(), purchasing.CreateInput{
		OrganizationID: s.orgID,
		ActorID:        "tester",
		SupplierID:     supplierID,
		Items:          lines,
		TaxPercent:     decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return o
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sup := s.supplier(t, "MediSupply")
	para := s.medicine(t, "Paracetamol", 5, 10, &sup.ID)
	ibu := s.medicine(t, "Ibuprofen", 0, 10, &sup.ID)

	o := s.order(t, sup.ID,
		purchasing.LineInput{MedicineID: para.ID, Quantity: 100, UnitCost: decimal.RequireFromString("0.50")},
		purchasing.LineInput{MedicineID: ibu.ID, Quantity: 40, UnitCost: decimal.RequireFromString("1.25")},
	)
	assert.Equal(t, purchasing.StatusPending, o.Status)
	assert.NotEmpty(t, o.PONumber)
	assert.True(t, decimal.RequireFromString("110").Equal(o.TotalAmount), "total %s", o.TotalAmount)

	_, err := s.orders.Approve(ctx, s.orgID, o.ID, "manager", purchasing.ApproveInput{})
	require.NoError(t, err)
	_, err = s.orders.MarkOrdered(ctx, s.orgID, o.ID, "manager")
	require.NoError(t, err)

	result, err := s.orders.Receive(ctx, purchasing.ReceiveInput{
		OrganizationID: s.orgID,
		OrderID:        o.ID,
		ActorID:        "pharmacist",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Outcome.Kind())
	assert.Equal(t, purchasing.CompletenessComplete, result.Completeness)
	assert.Equal(t, purchasing.StatusReceived, result.Order.Status)

	got, err := s.medicines.Get(ctx, s.orgID, para.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, got.Quantity)
	got, err = s.medicines.Get(ctx, s.orgID, ibu.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Quantity)

	receipts, err := s.orders.ListReceipts(ctx, s.orgID, o.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	stored, err := s.orders.Get(ctx, s.orgID, o.ID)
	require.NoError(t, err)
	for _, item := range stored.Items {
		assert.Equal(t, item.Quantity, item.ReceivedQuantity)
	}

	ledger, err := s.medicines.ListTransactions(ctx, s.orgID, para.ID, domain.ListFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, ledger.Items)
	assert.Equal(t, inventory.ReferencePurchaseOrder, ledger.Items[0].ReferenceType)
	assert.Equal(t, 105, ledger.Items[0].QuantityAfter)

	_, err = s.orders.Receive(ctx, purchasing.ReceiveInput{OrganizationID: s.orgID, OrderID: o.ID, ActorID: "pharmacist"})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	require.Eventually(t, func() bool {
		history, err := s.audit.History(ctx, s.orgID, "purchase_order", o.ID, 10)
		return err == nil && len(history) == 4
	}, 5*time.Second, 50*time.Millisecond)
	s.audit.Close()
}

func TestReceiveReportsMissingMedicine(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sup := s.supplier(t, "PharmaLink")
	para := s.medicine(t, "Paracetamol", 0, 10, &sup.ID)
	o := s.order(t, sup.ID, purchasing.LineInput{MedicineID: para.ID, Quantity: 10, UnitCost: decimal.NewFromInt(1)})
	_, err := s.orders.Approve(ctx, s.orgID, o.ID, "manager", purchasing.ApproveInput{})
	require.NoError(t, err)

	unknown := id.New()
	result, err := s.orders.Receive(ctx, purchasing.ReceiveInput{
		OrganizationID: s.orgID,
		OrderID:        o.ID,
		ActorID:        "pharmacist",
		Items: []purchasing.ReceiveItem{
			{MedicineID: para.ID, ReceivedQuantity: 10},
			{MedicineID: unknown, ReceivedQuantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "partial_success", result.Outcome.Kind())
	require.Len(t, result.Outcome.Failed(), 1)
	assert.Equal(t, unknown, result.Outcome.Failed()[0].MedicineID)
	assert.Equal(t, purchasing.StatusReceived, result.Order.Status)

	got, err := s.medicines.Get(ctx, s.orgID, para.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	receipts, err := s.orders.ListReceipts(ctx, s.orgID, o.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
	s.audit.Close()
}

func TestConcurrentReceiveAppliesOnce(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sup := s.supplier(t, "MediSupply")
	para := s.medicine(t, "Paracetamol", 0, 10, &sup.ID)
	o := s.order(t, sup.ID, purchasing.LineInput{MedicineID: para.ID, Quantity: 25, UnitCost: decimal.NewFromInt(1)})
	_, err := s.orders.Approve(ctx, s.orgID, o.ID, "manager", purchasing.ApproveInput{})
	require.NoError(t, err)

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.orders.Receive(ctx, purchasing.ReceiveInput{OrganizationID: s.orgID, OrderID: o.ID, ActorID: "pharmacist"})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition), "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)

	got, err := s.medicines.Get(ctx, s.orgID, para.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Quantity)
	s.audit.Close()
}

func TestGenerateAutoPurchaseOrders(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sup := s.supplier(t, "MediSupply")
	s.medicine(t, "Amoxicillin", 2, 20, &sup.ID)
	s.medicine(t, "Ibuprofen", 5, 20, &sup.ID)
	s.medicine(t, "Metformin", 500, 20, &sup.ID)
	s.medicine(t, "ORS", 0, 10, nil)

	groups, err := s.reorder.Suggestions(ctx, s.orgID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].ItemCount)

	result, err := s.reorder.GenerateAutoPurchaseOrders(ctx, reorder.GenerateInput{
		OrganizationID:  s.orgID,
		ActorID:         "manager",
		GroupBySupplier: true,
		AutoApprove:     true,
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, purchasing.StatusApproved, result.Orders[0].Status)
	assert.Len(t, result.Orders[0].Items, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, reorder.SkipNoSupplier, result.Skipped[0].Reason)
	s.audit.Close()
}
