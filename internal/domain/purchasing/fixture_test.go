package purchasing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"medstore/internal/core/id"
	"medstore/internal/core/numerator"
	"medstore/internal/core/types"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/supplier"
	"medstore/internal/testutil/memstore"
)

const actor = "user-1"

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	stock    *inventory.Service
	orders   *purchasing.Service
	orgID    id.ID
	supplier *supplier.Supplier
}

func newFixture(t *testing.T, cfg purchasing.Config) *fixture {
	t.Helper()

	store := memstore.New()
	txm := store.TxManager()
	stock := inventory.NewService(store.Medicines(), store.Suppliers(), txm, nil)
	orders := purchasing.NewService(purchasing.Deps{
		Repo:      store.Orders(),
		Suppliers: store.Suppliers(),
		Medicines: stock,
		Ledger:    stock,
		Numerator: &numerator.MockGenerator{},
		TxManager: txm,
	}, cfg)

	orgID := id.New()
	sup := supplier.NewSupplier(orgID, "Acme Pharma")
	sup.Code = "SUP-00001"
	store.PutSupplier(sup)

	return &fixture{
		ctx:      context.Background(),
		store:    store,
		stock:    stock,
		orders:   orders,
		orgID:    orgID,
		supplier: sup,
	}
}

func (f *fixture) medicine(t *testing.T, name string, qty int) *inventory.Medicine {
	t.Helper()
	m := inventory.NewMedicine(f.orgID, name)
	m.Quantity = qty
	m.CostPrice = types.MustMoney("2")
	f.store.PutMedicine(m)
	return m
}

func (f *fixture) create(t *testing.T, lines ...purchasing.LineInput) *purchasing.PurchaseOrder {
	t.Helper()
	o, err := f.orders.Create(f.ctx, purchasing.CreateInput{
		OrganizationID: f.orgID,
		ActorID:        actor,
		SupplierID:     f.supplier.ID,
		Items:          lines,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) approved(t *testing.T, lines ...purchasing.LineInput) *purchasing.PurchaseOrder {
	t.Helper()
	o := f.create(t, lines...)
	o, err := f.orders.Approve(f.ctx, f.orgID, o.ID, "manager", purchasing.ApproveInput{})
	require.NoError(t, err)
	return o
}

func line(m *inventory.Medicine, qty int, cost string) purchasing.LineInput {
	return purchasing.LineInput{MedicineID: m.ID, Quantity: qty, UnitCost: types.MustMoney(cost)}
}
