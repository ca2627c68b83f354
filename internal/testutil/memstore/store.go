// Package memstore is an in-memory implementation of the domain repositories for
// service tests. Its transaction manager snapshots the whole store and restores it
// when the callback fails, so rollback and savepoint behaviour can be asserted
// without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/tx"
	"medstore/internal/domain"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/supplier"
)

// FailFunc injects errors. op is the repository method name, key the row it touches.
type FailFunc func(op string, key id.ID) error

// Store holds all rows.
type Store struct {
	mu    sync.Mutex
	state state

	// Fail, when set, is consulted before every write.
	Fail FailFunc
}

type state struct {
	suppliers    map[id.ID]supplier.Supplier
	medicines    map[id.ID]inventory.Medicine
	transactions []inventory.Transaction
	orders       map[id.ID]purchasing.PurchaseOrder
	receipts     []purchasing.Receipt
}

// New creates an empty store.
func New() *Store {
	return &Store{state: state{
		suppliers: make(map[id.ID]supplier.Supplier),
		medicines: make(map[id.ID]inventory.Medicine),
		orders:    make(map[id.ID]purchasing.PurchaseOrder),
	}}
}

func (s state) clone() state {
	c := state{
		suppliers:    make(map[id.ID]supplier.Supplier, len(s.suppliers)),
		medicines:    make(map[id.ID]inventory.Medicine, len(s.medicines)),
		transactions: append([]inventory.Transaction(nil), s.transactions...),
		orders:       make(map[id.ID]purchasing.PurchaseOrder, len(s.orders)),
		receipts:     append([]purchasing.Receipt(nil), s.receipts...),
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.medicines {
		c.medicines[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	return c
}

func copyOrder(o purchasing.PurchaseOrder) purchasing.PurchaseOrder {
	o.Items = append([]purchasing.Item(nil), o.Items...)
	return o
}

func (st *Store) fail(op string, key id.ID) error {
	if st.Fail == nil {
		return nil
	}
	return st.Fail(op, key)
}

// --- transactions ---

type txKey struct{}

// TxManager returns a transaction manager that rolls the store back on error.
func (st *Store) TxManager() tx.ReadOnlyManager {
	return txManager{st: st}
}

type txManager struct {
	st *Store
}

func (m txManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	return m.guarded(context.WithValue(ctx, txKey{}, true), fn)
}

func (m txManager) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.guarded(context.WithValue(ctx, txKey{}, true), fn)
}

func (m txManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m txManager) guarded(ctx context.Context, fn func(ctx context.Context) error) error {
	m.st.mu.Lock()
	snapshot := m.st.state.clone()
	m.st.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.st.mu.Lock()
		m.st.state = snapshot
		m.st.mu.Unlock()
		return err
	}
	return nil
}

// --- seeding and inspection ---

// PutSupplier stores s as is.
func (st *Store) PutSupplier(s *supplier.Supplier) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.suppliers[s.ID] = *s
}

// PutMedicine stores m as is.
func (st *Store) PutMedicine(m *inventory.Medicine) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.medicines[m.ID] = *m
}

// Stock returns the current quantity of a medicine, or -1 when it does not exist.
func (st *Store) Stock(medicineID id.ID) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.state.medicines[medicineID]
	if !ok {
		return -1
	}
	return m.Quantity
}

// Transactions returns the ledger entries of a medicine in insertion order.
func (st *Store) Transactions(medicineID id.ID) []inventory.Transaction {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []inventory.Transaction
	for _, t := range st.state.transactions {
		if t.MedicineID == medicineID {
			out = append(out, t)
		}
	}
	return out
}

// Receipts returns every goods-received row.
func (st *Store) Receipts() []purchasing.Receipt {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]purchasing.Receipt(nil), st.state.receipts...)
}

// --- helpers ---

func page[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	f = f.Normalize()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return domain.ListResult[T]{
		Items:      append([]T{}, items[start:end]...),
		TotalCount: int64(total),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func notFound(entity string, key id.ID) error {
	return apperror.NewNotFound(entity, key.String())
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
