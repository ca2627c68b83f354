package memstore

import (
	"context"
	"sort"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/purchasing"
)

const orderEntity = "purchase order"

// Orders returns the purchasing repository view of the store.
func (st *Store) Orders() *OrderRepo {
	return &OrderRepo{st: st}
}

// OrderRepo implements purchasing.Repository.
type OrderRepo struct {
	st *Store
}

var _ purchasing.Repository = (*OrderRepo)(nil)

func (r *OrderRepo) Create(_ context.Context, o *purchasing.PurchaseOrder) error {
	if err := r.st.fail("order.Create", o.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.state.orders {
		if existing.OrganizationID == o.OrganizationID && existing.PONumber == o.PONumber {
			return apperror.NewDuplicate(orderEntity, "number", o.PONumber)
		}
	}
	r.st.state.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	o, ok := r.st.state.orders[orderID]
	if !ok || o.OrganizationID != orgID {
		return nil, notFound(orderEntity, orderID)
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orgID, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	return r.GetByID(ctx, orgID, orderID)
}

// Update writes the header only; lines keep their stored state.
func (r *OrderRepo) Update(_ context.Context, o *purchasing.PurchaseOrder) error {
	if err := r.st.fail("order.Update", o.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	existing, ok := r.st.state.orders[o.ID]
	if !ok || existing.OrganizationID != o.OrganizationID {
		return notFound(orderEntity, o.ID)
	}
	updated := *o
	updated.Items = existing.Items
	r.st.state.orders[o.ID] = updated
	return nil
}

func (r *OrderRepo) ReplaceItems(_ context.Context, o *purchasing.PurchaseOrder) error {
	if err := r.st.fail("order.ReplaceItems", o.ID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	existing, ok := r.st.state.orders[o.ID]
	if !ok || existing.OrganizationID != o.OrganizationID {
		return notFound(orderEntity, o.ID)
	}
	existing.Items = append([]purchasing.Item(nil), o.Items...)
	r.st.state.orders[o.ID] = existing
	return nil
}

func (r *OrderRepo) AddReceivedQuantity(_ context.Context, orgID, itemID id.ID, quantity int) error {
	if err := r.st.fail("order.AddReceivedQuantity", itemID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for key, o := range r.st.state.orders {
		if o.OrganizationID != orgID {
			continue
		}
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o = copyOrder(o)
				o.Items[i].ReceivedQuantity += quantity
				r.st.state.orders[key] = o
				return nil
			}
		}
	}
	return notFound("purchase order item", itemID)
}

func (r *OrderRepo) Delete(_ context.Context, orgID, orderID id.ID) error {
	if err := r.st.fail("order.Delete", orderID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	o, ok := r.st.state.orders[orderID]
	if !ok || o.OrganizationID != orgID {
		return notFound(orderEntity, orderID)
	}
	delete(r.st.state.orders, orderID)
	return nil
}

func (r *OrderRepo) List(_ context.Context, orgID id.ID, f purchasing.Filter) (domain.ListResult[purchasing.PurchaseOrder], error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var items []purchasing.PurchaseOrder
	for _, o := range r.st.state.orders {
		switch {
		case o.OrganizationID != orgID:
		case f.Status != nil && o.Status != *f.Status:
		case f.SupplierID != nil && o.SupplierID != *f.SupplierID:
		case f.FromDate != nil && o.OrderDate.Before(*f.FromDate):
		case f.ToDate != nil && o.OrderDate.After(*f.ToDate):
		case !matches(f.Search, o.PONumber):
		default:
			o.Items = nil
			items = append(items, o)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].PONumber > items[j].PONumber })
	return page(items, f.ListFilter), nil
}

func (r *OrderRepo) AppendReceipts(_ context.Context, receipts []purchasing.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	if err := r.st.fail("order.AppendReceipts", receipts[0].PurchaseOrderID); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.state.receipts = append(r.st.state.receipts, receipts...)
	return nil
}

func (r *OrderRepo) ListReceipts(_ context.Context, orgID, orderID id.ID) ([]purchasing.Receipt, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := []purchasing.Receipt{}
	for _, rc := range r.st.state.receipts {
		if rc.OrganizationID == orgID && rc.PurchaseOrderID == orderID {
			out = append(out, rc)
		}
	}
	return out, nil
}
