package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

func seeded(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(models.PricingConfig{Version: 1})
	m.Seed(DemoData())
	return m
}

func TestMemory_SeedAdvancesIDs(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	shop, err := m.CreateShop(ctx, models.Shop{Name: "New Shop", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, 6, shop.ID)

	p, err := m.CreateProduct(ctx, models.Product{ShopID: shop.ID, Name: "Thing", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, 10, p.ID)

	coupons, err := m.ListCoupons(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FRESH20", coupons[0].Code)
}

func TestMemory_OrdersAreNotAliased(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	o := models.Order{ID: "ORD-10001", ShopID: 1, Status: models.OrderStatusConfirmed,
		Items: []models.OrderItem{{ProductID: 1, Quantity: 1}}}
	require.NoError(t, m.CreateOrder(ctx, o))
	o.Items[0].Quantity = 99

	got, err := m.GetOrder(ctx, "ORD-10001")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, "ORD-10001", got.Items[0].OrderID)
	assert.False(t, got.CreatedAt.IsZero())

	got.Items[0].Quantity = 50
	again, _ := m.GetOrder(ctx, "ORD-10001")
	assert.Equal(t, 1, again.Items[0].Quantity)

	err = m.CreateOrder(ctx, o)
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestMemory_ListOrdersNewestFirst(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	require.NoError(t, m.CreateOrder(ctx, models.Order{ID: "ORD-10001", ShopID: 1, UserID: "u1", Status: models.OrderStatusConfirmed, CreatedAt: base}))
	require.NoError(t, m.CreateOrder(ctx, models.Order{ID: "ORD-10002", ShopID: 2, UserID: "u1", Status: models.OrderStatusReady, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, m.CreateOrder(ctx, models.Order{ID: "ORD-10003", ShopID: 1, UserID: "u2", Status: models.OrderStatusReady, CreatedAt: base.Add(2 * time.Minute)}))

	all, err := m.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ORD-10003", all[0].ID)

	mine, _ := m.ListOrders(ctx, OrderFilter{UserID: "u1"})
	assert.Len(t, mine, 2)

	ready, _ := m.ListOrders(ctx, OrderFilter{ShopID: 1, Status: models.OrderStatusReady})
	require.Len(t, ready, 1)
	assert.Equal(t, "ORD-10003", ready[0].ID)
}

func TestMemory_UpdateStatusCompareAndSet(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	require.NoError(t, m.CreateOrder(ctx, models.Order{ID: "ORD-10001", Status: models.OrderStatusConfirmed}))

	require.NoError(t, m.UpdateStatus(ctx, "ORD-10001", models.OrderStatusConfirmed, models.OrderStatusReady))

	err := m.UpdateStatus(ctx, "ORD-10001", models.OrderStatusConfirmed, models.OrderStatusReady)
	assert.True(t, errors.Is(err, models.ErrConflict))

	err = m.UpdateStatus(ctx, "ORD-99999", models.OrderStatusConfirmed, models.OrderStatusReady)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemory_AssignAndCompleteDelivery(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	require.NoError(t, m.CreateOrder(ctx, models.Order{ID: "ORD-10001", Status: models.OrderStatusReady}))

	require.NoError(t, m.AssignRider(ctx, "ORD-10001", "r1"))
	err := m.AssignRider(ctx, "ORD-10001", "r2")
	assert.True(t, errors.Is(err, models.ErrConflict))

	err = m.CompleteDelivery(ctx, "ORD-10001", "r2", decimal.NewFromInt(40))
	assert.True(t, errors.Is(err, models.ErrConflict))

	require.NoError(t, m.CompleteDelivery(ctx, "ORD-10001", "r1", decimal.NewFromInt(40)))
	o, _ := m.GetOrder(ctx, "ORD-10001")
	assert.Equal(t, models.OrderStatusDelivered, o.Status)

	r, _ := m.GetRider(ctx, "r1")
	assert.True(t, r.Earnings.Equal(decimal.NewFromInt(1290)))
	assert.Equal(t, 46, r.CompletedOrders)
}

func TestMemory_SavePricingConfigBumpsVersion(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	saved, err := m.SavePricingConfig(ctx, models.PricingConfig{DeliveryBase: decimal.NewFromInt(20), Version: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	cfg, _ := m.PricingConfig(ctx)
	assert.True(t, cfg.DeliveryBase.Equal(decimal.NewFromInt(20)))
}
