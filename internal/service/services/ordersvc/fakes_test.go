package ordersvc

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/ireturnrequestrepo"
	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/coupon"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/product"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
)

// memStore is an in-memory database. Transactions are serialized by txMu and
// undone on rollback from a snapshot; mu guards every read and write.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int64
	orders   map[int64]order.Order
	items    map[int64]orderitem.OrderItem
	returns  map[int64]returnrequest.ReturnRequest
	images   map[int64][]string
	products map[int64]product.Product
	coupons  map[string]coupon.Coupon

	duplicateCodes int
	failReserve    map[int64]error
}

type memSnapshot struct {
	nextID   int64
	orders   map[int64]order.Order
	items    map[int64]orderitem.OrderItem
	returns  map[int64]returnrequest.ReturnRequest
	images   map[int64][]string
	products map[int64]product.Product
	coupons  map[string]coupon.Coupon
}

func newMemStore() *memStore {
	return &memStore{
		orders:      map[int64]order.Order{},
		items:       map[int64]orderitem.OrderItem{},
		returns:     map[int64]returnrequest.ReturnRequest{},
		images:      map[int64][]string{},
		products:    map[int64]product.Product{},
		coupons:     map[string]coupon.Coupon{},
		failReserve: map[int64]error{},
	}
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return memSnapshot{
		nextID:   m.nextID,
		orders:   maps.Clone(m.orders),
		items:    maps.Clone(m.items),
		returns:  maps.Clone(m.returns),
		images:   maps.Clone(m.images),
		products: maps.Clone(m.products),
		coupons:  maps.Clone(m.coupons),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID = s.nextID
	m.orders = s.orders
	m.items = s.items
	m.returns = s.returns
	m.images = s.images
	m.products = s.products
	m.coupons = s.coupons
}

func (m *memStore) id() int64 {
	m.nextID++

	return m.nextID
}

func (m *memStore) product(id int64) product.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.products[id]
}

func (m *memStore) coupon(code string) coupon.Coupon {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.coupons[code]
}

func (m *memStore) orderByCode(code string) (order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.Code == code {
			return o, true
		}
	}

	return order.Order{}, false
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.orders)
}

func (m *memStore) itemsOf(orderID int64) []orderitem.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []orderitem.OrderItem
	for _, item := range m.items {
		if item.OrderID == orderID {
			result = append(result, item)
		}
	}
	slices.SortFunc(result, func(a, b orderitem.OrderItem) int { return cmp.Compare(a.ID, b.ID) })

	return result
}

// fakeUOW implements unitOfWork over a memStore.
type fakeUOW struct {
	store *memStore
	snap  *memSnapshot
}

func (u *fakeUOW) Begin(context.Context) error {
	u.store.txMu.Lock()
	snap := u.store.snapshot()
	u.snap = &snap

	return nil
}

func (u *fakeUOW) Commit(context.Context) error {
	if u.snap == nil {
		return nil
	}
	u.snap = nil
	u.store.txMu.Unlock()

	return nil
}

func (u *fakeUOW) Rollback(context.Context) error {
	if u.snap == nil {
		return nil
	}
	u.store.restore(*u.snap)
	u.snap = nil
	u.store.txMu.Unlock()

	return nil
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return fakeOrderRepo{u.store}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return fakeOrderItemRepo{u.store}
}

func (u *fakeUOW) ReturnRequestRepository() ireturnrequestrepo.IReturnRequestRepository {
	return fakeReturnRequestRepo{u.store}
}

func (u *fakeUOW) ProductRepository() iproductrepo.IProductRepository {
	return fakeProductRepo{u.store}
}

func (u *fakeUOW) CouponRepository() icouponrepo.ICouponRepository {
	return fakeCouponRepo{u.store}
}

type fakeOrderRepo struct{ m *memStore }

func (r fakeOrderRepo) Insert(_ context.Context, o order.Order) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.duplicateCodes > 0 {
		r.m.duplicateCodes--

		return 0, errs.ErrDuplicateCode
	}
	for _, existing := range r.m.orders {
		if existing.Code == o.Code {
			return 0, errs.ErrDuplicateCode
		}
	}

	o.ID = r.m.id()
	o.OrderItems = nil
	r.m.orders[o.ID] = o

	return o.ID, nil
}

func (r fakeOrderRepo) GetByCode(_ context.Context, code string) (*order.Order, error) {
	o, ok := r.m.orderByCode(code)
	if !ok {
		return nil, errs.ErrOrderNotFound
	}

	return &o, nil
}

func (r fakeOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	o, ok := r.m.orders[id]
	if !ok {
		return nil, errs.ErrOrderNotFound
	}

	return &o, nil
}

func (r fakeOrderRepo) UpdateStatus(_ context.Context, upd order.StatusUpdate) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	o, ok := r.m.orders[upd.ID]
	if !ok {
		return false, nil
	}
	if len(upd.From) > 0 && !slices.Contains(upd.From, o.Status) {
		return false, nil
	}

	o.Status = upd.To
	o.UpdatedAt = upd.UpdatedAt
	if upd.CancelReason != nil {
		reason := *upd.CancelReason
		o.CancelReason = &reason
	}
	r.m.orders[o.ID] = o

	return true, nil
}

func (r fakeOrderRepo) filtered(filter order.QueryOrdersModel) []order.Order {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []order.Order
	for _, o := range r.m.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, o.Code, o.Name, o.Phone, o.Email) {
			continue
		}
		if filter.CreatedFrom != nil && o.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedBefore != nil && !o.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		result = append(result, o)
	}

	slices.SortFunc(result, func(a, b order.Order) int {
		c := cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
		if filter.OrderByDesc {
			return -c
		}

		return c
	})

	return result
}

func (r fakeOrderRepo) Query(_ context.Context, filter order.QueryOrdersModel) ([]order.Order, error) {
	return page(r.filtered(filter), filter.Limit, filter.Offset), nil
}

func (r fakeOrderRepo) Count(_ context.Context, filter order.QueryOrdersModel) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r fakeOrderRepo) CountByStatus(_ context.Context, rng order.CountRange) (order.StatusCount, error) {
	var c order.StatusCount
	for _, o := range r.filtered(order.QueryOrdersModel{CreatedFrom: rng.CreatedFrom, CreatedBefore: rng.CreatedBefore}) {
		c.Total++
		switch o.Status {
		case order.StatusConfirmed:
			c.Confirmed++
		case order.StatusShipping:
			c.Shipping++
		case order.StatusDelivered:
			c.Delivered++
		}
	}

	return c, nil
}

func matchesSearch(search string, fields ...string) bool {
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}

	return false
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all
}

type fakeOrderItemRepo struct{ m *memStore }

func (r fakeOrderItemRepo) BulkInsert(
	_ context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		for _, existing := range r.m.items {
			if existing.OrderID == item.OrderID && existing.ProductID == item.ProductID {
				return nil, fmt.Errorf("duplicate line item for product %d", item.ProductID)
			}
		}
		item.ID = r.m.id()
		r.m.items[item.ID] = item
		result = append(result, item)
	}

	return result, nil
}

func (r fakeOrderItemRepo) Query(
	_ context.Context,
	filter orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	result := []orderitem.OrderItem{}
	for _, item := range r.m.items {
		if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, item.ID) {
			continue
		}
		if len(filter.OrderIds) > 0 && !slices.Contains(filter.OrderIds, item.OrderID) {
			continue
		}
		result = append(result, item)
	}
	slices.SortFunc(result, func(a, b orderitem.OrderItem) int { return cmp.Compare(a.ID, b.ID) })

	return result, nil
}

func (r fakeOrderItemRepo) SetReturnQuantities(_ context.Context, quantities []orderitem.ReturnQuantity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, q := range quantities {
		item, ok := r.m.items[q.OrderItemID]
		if !ok {
			continue
		}
		qty := q.Quantity
		item.ReturnQuantity = &qty
		r.m.items[item.ID] = item
	}

	return nil
}

type fakeReturnRequestRepo struct{ m *memStore }

func (r fakeReturnRequestRepo) Insert(_ context.Context, rr returnrequest.ReturnRequest) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.returns {
		if existing.OrderID == rr.OrderID {
			return 0, errs.ErrReturnRequestExists
		}
	}
	rr.ID = r.m.id()
	rr.Images = nil
	r.m.returns[rr.ID] = rr

	return rr.ID, nil
}

func (r fakeReturnRequestRepo) InsertImages(_ context.Context, requestID int64, urls []string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.images[requestID] = append(slices.Clone(r.m.images[requestID]), urls...)

	return nil
}

func (r fakeReturnRequestRepo) GetByID(_ context.Context, id int64) (*returnrequest.ReturnRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rr, ok := r.m.returns[id]
	if !ok {
		return nil, errs.ErrReturnRequestNotFound
	}
	rr.Images = []string{}

	return &rr, nil
}

func (r fakeReturnRequestRepo) GetByOrderID(_ context.Context, orderID int64) (*returnrequest.ReturnRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, rr := range r.m.returns {
		if rr.OrderID == orderID {
			rr.Images = []string{}

			return &rr, nil
		}
	}

	return nil, errs.ErrReturnRequestNotFound
}

func (r fakeReturnRequestRepo) UpdateStatus(_ context.Context, upd returnrequest.StatusUpdate) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rr, ok := r.m.returns[upd.ID]
	if !ok {
		return false, nil
	}
	rr.Status = upd.To
	rr.UpdatedAt = upd.UpdatedAt
	if upd.Response != nil {
		resp := *upd.Response
		rr.Response = &resp
	}
	r.m.returns[rr.ID] = rr

	return true, nil
}

func (r fakeReturnRequestRepo) filtered(filter returnrequest.QueryReturnRequestsModel) []returnrequest.ReturnRequest {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []returnrequest.ReturnRequest
	for _, rr := range r.m.returns {
		o := r.m.orders[rr.OrderID]
		if filter.Status != nil && rr.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, o.Code, o.Name, o.Phone, o.Email) {
			continue
		}
		if filter.CreatedFrom != nil && rr.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedBefore != nil && !rr.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		rr.Images = []string{}
		result = append(result, rr)
	}

	slices.SortFunc(result, func(a, b returnrequest.ReturnRequest) int {
		c := cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
		if filter.OrderByDesc {
			return -c
		}

		return c
	})

	return result
}

func (r fakeReturnRequestRepo) Query(
	_ context.Context,
	filter returnrequest.QueryReturnRequestsModel,
) ([]returnrequest.ReturnRequest, error) {
	return page(r.filtered(filter), filter.Limit, filter.Offset), nil
}

func (r fakeReturnRequestRepo) Count(_ context.Context, filter returnrequest.QueryReturnRequestsModel) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r fakeReturnRequestRepo) ListImages(_ context.Context, requestIDs []int64) (map[int64][]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	result := make(map[int64][]string, len(requestIDs))
	for _, id := range requestIDs {
		if urls, ok := r.m.images[id]; ok {
			result[id] = slices.Clone(urls)
		}
	}

	return result, nil
}

type fakeProductRepo struct{ m *memStore }

func (r fakeProductRepo) Get(_ context.Context, id int64) (*product.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.products[id]
	if !ok {
		return nil, errs.ErrProductNotFound
	}

	return &p, nil
}

func (r fakeProductRepo) TryReserve(_ context.Context, id int64, qty int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.m.failReserve[id]; err != nil {
		return err
	}
	p, ok := r.m.products[id]
	if !ok {
		return errs.ErrProductNotFound
	}
	if p.Quantity < qty {
		return fmt.Errorf("product %d: %w", id, errs.ErrInsufficientStock)
	}
	p.Quantity -= qty
	r.m.products[id] = p

	return nil
}

func (r fakeProductRepo) Release(_ context.Context, id int64, qty int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.products[id]
	if !ok {
		return errs.ErrProductNotFound
	}
	p.Quantity += qty
	r.m.products[id] = p

	return nil
}

type fakeCouponRepo struct{ m *memStore }

func (r fakeCouponRepo) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.coupons[code]
	if !ok {
		return nil, nil
	}

	return &c, nil
}

func (r fakeCouponRepo) TryConsume(_ context.Context, code string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.coupons[code]
	if !ok || c.Quantity <= 0 {
		return fmt.Errorf("coupon %q: %w", code, errs.ErrCouponExhausted)
	}
	c.Quantity--
	r.m.coupons[code] = c

	return nil
}

// fakeNotifier records sent notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, msg notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)

	return nil
}

func (n *fakeNotifier) subjects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	result := make([]string, len(n.sent))
	for i, msg := range n.sent {
		result[i] = msg.Subject
	}

	return result
}

// fakeCache is an order cache backed by a map.
// beforeSet, when set, runs ahead of every fill, outside the lock.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]order.Order
	generations map[string]int64
	hits        int
	invalidated []string
	skipped     int
	beforeSet   func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:     map[string]order.Order{},
		generations: map[string]int64{},
	}
}

func (c *fakeCache) Get(_ context.Context, code string) (*order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.entries[code]
	if !ok {
		return nil, nil
	}
	c.hits++

	return &o, nil
}

func (c *fakeCache) Generation(_ context.Context, code string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[code], nil
}

func (c *fakeCache) Set(_ context.Context, o *order.Order, generation int64) (bool, error) {
	if c.beforeSet != nil {
		c.beforeSet()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[o.Code] != generation {
		c.skipped++

		return false, nil
	}
	c.entries[o.Code] = *o

	return true, nil
}

func (c *fakeCache) Invalidate(_ context.Context, codes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, code := range codes {
		c.generations[code]++
		delete(c.entries, code)
	}
	c.invalidated = append(c.invalidated, codes...)

	return nil
}

var errReserveBroken = errors.New("reserve broken")
