package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

// Memory is the in-process backend. One mutex guards every table so that
// multi-table writes such as CompleteDelivery stay atomic.
type Memory struct {
	mu sync.RWMutex

	shops      map[int]models.Shop
	products   map[int]models.Product
	categories []models.Category
	orders     map[string]models.Order
	riders     map[string]models.Rider
	coupons    map[string]models.Coupon
	pricing    models.PricingConfig

	nextShopID    int
	nextProductID int
	now           func() time.Time
}

func NewMemory(pricing models.PricingConfig) *Memory {
	return &Memory{
		shops:         make(map[int]models.Shop),
		products:      make(map[int]models.Product),
		orders:        make(map[string]models.Order),
		riders:        make(map[string]models.Rider),
		coupons:       make(map[string]models.Coupon),
		pricing:       pricing,
		nextShopID:    1,
		nextProductID: 1,
		now:           time.Now,
	}
}

// Seed loads fixture data, replacing rows with the same keys.
func (m *Memory) Seed(data SeedData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = append([]models.Category(nil), data.Categories...)
	for _, s := range data.Shops {
		m.shops[s.ID] = s
		if s.ID >= m.nextShopID {
			m.nextShopID = s.ID + 1
		}
	}
	for _, p := range data.Products {
		m.products[p.ID] = p
		if p.ID >= m.nextProductID {
			m.nextProductID = p.ID + 1
		}
	}
	for _, r := range data.Riders {
		m.riders[r.ID] = r
	}
	for _, c := range data.Coupons {
		c = c.Normalize()
		m.coupons[c.Code] = c
	}
	for _, o := range data.Orders {
		m.orders[o.ID] = o.Clone()
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) ListShops(context.Context) ([]models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shops := make([]models.Shop, 0, len(m.shops))
	for _, s := range m.shops {
		shops = append(shops, s)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })
	return shops, nil
}

func (m *Memory) GetShop(_ context.Context, id int) (models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shops[id]
	if !ok {
		return models.Shop{}, fmt.Errorf("shop %d: %w", id, models.ErrNotFound)
	}
	return s, nil
}

func (m *Memory) CreateShop(_ context.Context, shop models.Shop) (models.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shop.ID = m.nextShopID
	m.nextShopID++
	m.shops[shop.ID] = shop
	return shop, nil
}

func (m *Memory) UpdateShop(_ context.Context, shop models.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[shop.ID]; !ok {
		return fmt.Errorf("shop %d: %w", shop.ID, models.ErrNotFound)
	}
	m.shops[shop.ID] = shop
	return nil
}

func (m *Memory) DeleteShop(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[id]; !ok {
		return fmt.Errorf("shop %d: %w", id, models.ErrNotFound)
	}
	delete(m.shops, id)
	return nil
}

func (m *Memory) ListProducts(_ context.Context, shopID int) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if shopID != 0 && p.ShopID != shopID {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *Memory) GetProduct(_ context.Context, id int) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	return p, nil
}

func (m *Memory) CreateProduct(_ context.Context, p models.Product) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextProductID
	m.nextProductID++
	m.products[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProduct(_ context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("product %d: %w", p.ID, models.ErrNotFound)
	}
	m.products[p.ID] = p
	return nil
}

func (m *Memory) SetProductAvailability(_ context.Context, id int, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	p.IsAvailable = available
	m.products[id] = p
	return nil
}

func (m *Memory) ListCategories(context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	categories := append([]models.Category(nil), m.categories...)
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].SortOrder < categories[j].SortOrder })
	return categories, nil
}

func (m *Memory) CreateOrder(_ context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.ID]; exists {
		return fmt.Errorf("order %s: %w", order.ID, models.ErrConflict)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = m.now()
	}
	stored := order.Clone()
	for i := range stored.Items {
		stored.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = stored
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return o.Clone(), nil
}

func (m *Memory) ListOrders(_ context.Context, f OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orders := []models.Order{}
	for _, o := range m.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.ShopID != 0 && o.ShopID != f.ShopID {
			continue
		}
		if f.RiderID != "" && (o.RiderID == nil || *o.RiderID != f.RiderID) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		orders = append(orders, o.Clone())
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return strings.Compare(orders[i].ID, orders[j].ID) > 0
	})
	return orders, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != from {
		return fmt.Errorf("order %s is %s, not %s: %w", id, o.Status, from, models.ErrConflict)
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func (m *Memory) AssignRider(_ context.Context, id, riderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusReady || o.RiderID != nil {
		return fmt.Errorf("order %s is %s: %w", id, o.Status, models.ErrConflict)
	}
	rid := riderID
	o.RiderID = &rid
	o.Status = models.OrderStatusOutForDelivery
	m.orders[id] = o
	return nil
}

func (m *Memory) CompleteDelivery(_ context.Context, id, riderID string, earning decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusOutForDelivery || o.RiderID == nil || *o.RiderID != riderID {
		return fmt.Errorf("order %s is not out for delivery with rider %s: %w", id, riderID, models.ErrConflict)
	}
	r, ok := m.riders[riderID]
	if !ok {
		return fmt.Errorf("rider %s: %w", riderID, models.ErrNotFound)
	}
	o.Status = models.OrderStatusDelivered
	r.Earnings = r.Earnings.Add(earning)
	r.CompletedOrders++
	m.orders[id] = o
	m.riders[riderID] = r
	return nil
}

func (m *Memory) GetRider(_ context.Context, id string) (models.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.riders[id]
	if !ok {
		return models.Rider{}, fmt.Errorf("rider %s: %w", id, models.ErrNotFound)
	}
	return r, nil
}

func (m *Memory) ListRiders(context.Context) ([]models.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	riders := make([]models.Rider, 0, len(m.riders))
	for _, r := range m.riders {
		riders = append(riders, r)
	}
	sort.Slice(riders, func(i, j int) bool { return riders[i].ID < riders[j].ID })
	return riders, nil
}

func (m *Memory) CreateRider(_ context.Context, r models.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.riders[r.ID]; exists {
		return fmt.Errorf("rider %s: %w", r.ID, models.ErrConflict)
	}
	m.riders[r.ID] = r
	return nil
}

func (m *Memory) SetRiderStatus(_ context.Context, id string, status models.RiderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return fmt.Errorf("rider %s: %w", id, models.ErrNotFound)
	}
	r.Status = status
	m.riders[id] = r
	return nil
}

func (m *Memory) ListCoupons(context.Context) ([]models.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coupons := make([]models.Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		coupons = append(coupons, c)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].Code < coupons[j].Code })
	return coupons, nil
}

func (m *Memory) SaveCoupon(_ context.Context, c models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c = c.Normalize()
	m.coupons[c.Code] = c
	return nil
}

func (m *Memory) PricingConfig(context.Context) (models.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pricing, nil
}

func (m *Memory) SavePricingConfig(_ context.Context, cfg models.PricingConfig) (models.PricingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Version = m.pricing.Version + 1
	m.pricing = cfg
	return cfg, nil
}
