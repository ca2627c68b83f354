package reorder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/numerator"
	"medstore/internal/core/types"
	"medstore/internal/domain/audit"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/reorder"
	"medstore/internal/domain/supplier"
	"medstore/internal/testutil/memstore"
)

type env struct {
	ctx   context.Context
	store *memstore.Store
	orgID id.ID
	acme  *supplier.Supplier
	zeta  *supplier.Supplier
	audit *auditSpy
}

type auditSpy struct {
	entries []audit.Entry
}

func (a *auditSpy) Record(_ context.Context, e audit.Entry) {
	a.entries = append(a.entries, e)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	orgID := id.New()
	store := memstore.New()

	acme := supplier.NewSupplier(orgID, "Acme Pharma")
	acme.Code = "SUP-00001"
	acme.PaymentTerms = 14
	store.PutSupplier(acme)

	zeta := supplier.NewSupplier(orgID, "Zeta Labs")
	zeta.Code = "SUP-00002"
	store.PutSupplier(zeta)

	return &env{ctx: context.Background(), store: store, orgID: orgID, acme: acme, zeta: zeta, audit: &auditSpy{}}
}

func (e *env) medicine(name string, qty, threshold int, cost string, sup *supplier.Supplier) *inventory.Medicine {
	m := inventory.NewMedicine(e.orgID, name)
	m.Quantity = qty
	m.LowStockThreshold = threshold
	m.CostPrice = types.MustMoney(cost)
	if sup != nil {
		m.SupplierID = &sup.ID
	}
	e.store.PutMedicine(m)
	return m
}

func (e *env) service(t *testing.T, rule string) *reorder.Service {
	t.Helper()
	txm := e.store.TxManager()
	stock := inventory.NewService(e.store.Medicines(), e.store.Suppliers(), txm, nil)
	orders := purchasing.NewService(purchasing.Deps{
		Repo:      e.store.Orders(),
		Suppliers: e.store.Suppliers(),
		Medicines: stock,
		Ledger:    stock,
		Numerator: &numerator.MockGenerator{},
		TxManager: txm,
		Audit:     e.audit,
	}, purchasing.Config{})

	cfg := reorder.Config{DefaultPaymentTerms: 7, Audit: e.audit}
	if rule != "" {
		compiled, err := reorder.CompileApprovalRule(rule)
		require.NoError(t, err)
		cfg.ApprovalRule = compiled
	}
	return reorder.NewService(e.store.Candidates(), orders, txm, cfg)
}

func TestSuggestions(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Plenty", 500, 10, "2", e.acme)
	e.medicine("Orphan", 0, 5, "1", nil)

	groups, err := e.service(t, "").Suggestions(e.ctx, e.orgID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Acme Pharma", groups[0].Supplier.Name)
	assert.Equal(t, 50, groups[0].Items[0].SuggestedQuantity)
	assert.Nil(t, groups[1].Supplier)

	other, err := e.service(t, "").Suggestions(e.ctx, id.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGenerateGroupedBySupplier(t *testing.T) {
	e := newEnv(t)
	para := e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Aspirin", 0, 10, "1", e.acme)
	e.medicine("Zinc", 1, 5, "1", e.zeta)
	orphan := e.medicine("Orphan", 0, 5, "1", nil)

	res, err := e.service(t, "").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID:  e.orgID,
		ActorID:         "manager",
		GroupBySupplier: true,
	})
	require.NoError(t, err)

	require.Len(t, res.Orders, 2)
	acmeOrder := res.Orders[0]
	assert.Equal(t, e.acme.ID, acmeOrder.SupplierID)
	assert.Equal(t, purchasing.StatusPending, acmeOrder.Status)
	require.Len(t, acmeOrder.Items, 2)
	// 50 x 1 + 50 x 2
	assert.True(t, acmeOrder.TotalAmount.Equal(types.MustMoney("150")))

	require.NotNil(t, acmeOrder.ExpectedDeliveryDate)
	assert.True(t, acmeOrder.ExpectedDeliveryDate.Equal(acmeOrder.OrderDate.AddDate(0, 0, 14)))
	zetaOrder := res.Orders[1]
	require.NotNil(t, zetaOrder.ExpectedDeliveryDate)
	assert.True(t, zetaOrder.ExpectedDeliveryDate.Equal(zetaOrder.OrderDate.AddDate(0, 0, 7)))

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, reorder.SkipNoSupplier, res.Skipped[0].Reason)
	assert.Equal(t, orphan.ID, *res.Skipped[0].MedicineID)

	assert.Equal(t, 3, e.store.Stock(para.ID), "generating orders does not move stock")
}

func TestGenerateMinimumOrderValue(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Zinc", 1, 5, "0.5", e.zeta)

	res, err := e.service(t, "").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID:  e.orgID,
		GroupBySupplier: true,
		MinOrderValue:   types.MustMoney("50"),
	})
	require.NoError(t, err)

	require.Len(t, res.Orders, 1)
	assert.Equal(t, e.acme.ID, res.Orders[0].SupplierID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, reorder.SkipBelowMinimum, res.Skipped[0].Reason)
	assert.Equal(t, e.zeta.ID, *res.Skipped[0].SupplierID)
	assert.True(t, res.Skipped[0].Value.Equal(types.MustMoney("25")))
}

func TestGenerateOnePerMedicine(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Aspirin", 0, 10, "1", e.acme)

	res, err := e.service(t, "").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID: e.orgID,
		MinOrderValue:  types.MustMoney("60"),
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Len(t, res.Orders[0].Items, 1)
	require.Len(t, res.Skipped, 1)
	assert.NotNil(t, res.Skipped[0].MedicineID)
}

func TestGenerateAutoApprove(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Zinc", 1, 5, "100", e.zeta)

	res, err := e.service(t, "total <= 1000.0").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID:  e.orgID,
		ActorID:         "manager",
		GroupBySupplier: true,
		AutoApprove:     true,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	assert.Equal(t, purchasing.StatusApproved, res.Orders[0].Status)
	require.NotNil(t, res.Orders[0].ApprovedBy)
	assert.Equal(t, "manager", *res.Orders[0].ApprovedBy)
	assert.Equal(t, purchasing.StatusPending, res.Orders[1].Status, "5000 exceeds the rule")
}

func TestGenerateValidationAndEmpty(t *testing.T) {
	e := newEnv(t)
	svc := e.service(t, "")

	_, err := svc.GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID: e.orgID,
		MinOrderValue:  types.MustMoney("-1"),
	})
	assert.True(t, apperror.IsValidation(err))

	res, err := svc.GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{OrganizationID: e.orgID})
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Empty(t, res.Skipped)
}

func TestGenerateIsAtomic(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Zinc", 1, 5, "1", e.zeta)

	calls := 0
	e.store.Fail = func(op string, _ id.ID) error {
		if op != "order.Create" {
			return nil
		}
		calls++
		if calls == 2 {
			return apperror.NewDatabase("create purchase order", assert.AnError)
		}
		return nil
	}

	_, err := e.service(t, "").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID:  e.orgID,
		GroupBySupplier: true,
	})
	require.Error(t, err)

	list, err := e.store.Orders().List(e.ctx, e.orgID, purchasing.Filter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount, "first order rolled back with the second")
	assert.Empty(t, e.audit.entries, "no audit trail for orders that were rolled back")
}

func TestGenerateRecordsEachOrder(t *testing.T) {
	e := newEnv(t)
	e.medicine("Paracetamol", 3, 10, "2", e.acme)
	e.medicine("Zinc", 1, 5, "1", e.zeta)

	res, err := e.service(t, "").GenerateAutoPurchaseOrders(e.ctx, reorder.GenerateInput{
		OrganizationID:  e.orgID,
		ActorID:         "manager",
		GroupBySupplier: true,
		AutoApprove:     true,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	var generated []audit.Entry
	for _, entry := range e.audit.entries {
		if entry.Action == audit.ActionGenerate {
			generated = append(generated, entry)
		}
	}
	require.Len(t, generated, 2)
	assert.Equal(t, res.Orders[0].ID, generated[0].EntityID)
	assert.Equal(t, "purchase_order", generated[0].EntityType)
	assert.Equal(t, "manager", generated[0].ActorID)
	assert.Equal(t, true, generated[0].Changes["autoApprove"])

	actions := make(map[audit.Action]int)
	for _, entry := range e.audit.entries {
		actions[entry.Action]++
	}
	assert.Equal(t, map[audit.Action]int{
		audit.ActionCreate:   2,
		audit.ActionApprove:  2,
		audit.ActionGenerate: 2,
	}, actions, "per-order entries are released once the run commits")
}
