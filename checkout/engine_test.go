package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/cart"
	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/payment"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
	"github.com/37vikanshu-dot/Mini-Drop/store"
	"github.com/37vikanshu-dot/Mini-Drop/store/storetest"
)

type fixture struct {
	engine   *Engine
	mem      *store.Memory
	orders   *storetest.FailingOrders
	sessions *cart.MemoryStore
	events   *events.Recorder
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	mem := store.NewMemory(pricing.DefaultConfig())
	mem.Seed(store.DemoData())

	orders := &storetest.FailingOrders{OrderRepository: mem}
	sessions := cart.NewMemoryStore()
	rec := &events.Recorder{}
	gw := payment.NewGateway(payment.Config{KeySecret: secret}, logger)

	seq := 0
	e := NewEngine(
		catalog.NewService(mem, nil, logger),
		pricing.NewService(mem, logger),
		orders,
		sessions,
		gw,
		rec,
		Config{ShopDeliveryFee: decimal.NewFromInt(15)},
		logger,
	)
	e.newID = func() string {
		seq++
		return fmt.Sprintf("ORD-%05d", 10000+seq)
	}
	return &fixture{engine: e, mem: mem, orders: orders, sessions: sessions, events: rec}
}

func (f *fixture) fillCart(t *testing.T, id string, items map[string]int, c *models.Coupon) {
	t.Helper()
	sess := cart.NewSession(id)
	for key, qty := range items {
		for range qty {
			sess.Cart.Add(key)
		}
	}
	sess.Coupon = c
	require.NoError(t, f.sessions.Save(context.Background(), sess))
}

func TestSplitTwoShops(t *testing.T) {
	catalogIdx := models.IndexProducts(store.DemoData().Products)
	cartItems := map[string]int{"1": 2, "2": 1, "5": 1, "404": 3}

	buckets := Split(cartItems, catalogIdx, decimal.NewFromInt(20), decimal.NewFromInt(15))
	require.Len(t, buckets, 2)

	shares := decimal.Zero
	for _, b := range buckets {
		sum := decimal.Zero
		for _, item := range b.Items {
			p := catalogIdx[item.ProductID]
			assert.Equal(t, b.ShopID, p.ShopID)
			sum = sum.Add(item.LineTotal())
		}
		assert.True(t, sum.Equal(b.Subtotal))
		assert.True(t, b.DeliveryFee.Equal(decimal.NewFromInt(15)))
		shares = shares.Add(b.DiscountShare)
	}
	assert.Equal(t, 1, buckets[0].ShopID)
	assert.True(t, buckets[0].Subtotal.Equal(decimal.NewFromInt(109)))
	assert.True(t, buckets[1].Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, shares.Equal(decimal.NewFromInt(20)))
}

func TestSplitRoundsToPaise(t *testing.T) {
	catalogIdx := models.IndexProducts(store.DemoData().Products)
	buckets := Split(map[string]int{"1": 2, "2": 1, "5": 1}, catalogIdx, decimal.NewFromInt(20), decimal.NewFromInt(15))
	require.Len(t, buckets, 2)

	// 109/129 of 20 is 16.899..., the last shop takes the rest
	assert.Equal(t, "16.9", buckets[0].DiscountShare.String())
	assert.Equal(t, "107.1", buckets[0].Total.String())
	assert.Equal(t, "3.1", buckets[1].DiscountShare.String())
	assert.Equal(t, "31.9", buckets[1].Total.String())
	assert.True(t, buckets[0].DiscountShare.Add(buckets[1].DiscountShare).Equal(decimal.NewFromInt(20)))
	for _, b := range buckets {
		assert.True(t, b.Total.Equal(b.Total.Round(2)), "shop %d total %s", b.ShopID, b.Total)
	}
}

func TestSplitTotalNeverNegative(t *testing.T) {
	catalogIdx := models.IndexProducts(store.DemoData().Products)
	buckets := Split(map[string]int{"8": 1}, catalogIdx, decimal.NewFromInt(1000), decimal.Zero)
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Total.IsZero())
}

func TestPlaceOrderSplitsByShop(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 2, "2": 1, "5": 1}, &models.Coupon{Code: "FLAT20", Type: models.CouponFlat, Discount: decimal.NewFromInt(20)})

	res, err := f.engine.PlaceOrder(ctx, "s1", Request{UserID: "u1", DeliveryAddress: " 12 Main St "})
	require.NoError(t, err)
	require.Len(t, res.OrderIDs, 2)
	assert.Equal(t, res.OrderIDs[0], res.FirstOrderID)
	assert.False(t, res.Partial())

	for _, id := range res.OrderIDs {
		o, err := f.mem.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusConfirmed, o.Status)
		assert.Equal(t, "12 Main St", o.DeliveryAddress)
		assert.Equal(t, models.PaymentMethodCOD, o.PaymentMethod)
		assert.Nil(t, o.RiderID)
		require.NotEmpty(t, o.Items)
		assert.True(t, o.DeliveryFee.Equal(decimal.NewFromInt(15)))
	}
	assert.Len(t, f.events.Events(), 2)

	sess, err := f.sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sess.Cart.Empty())
	assert.Nil(t, sess.Coupon)
}

func TestPlaceOrderRequiresAddress(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	_, err := f.engine.PlaceOrder(ctx, "s1", Request{DeliveryAddress: "   "})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	orders, err := f.mem.ListOrders(ctx, store.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.Equal(t, 1, sess.Cart.Count())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.engine.PlaceOrder(context.Background(), "nobody", Request{DeliveryAddress: "x"})
	assert.True(t, models.IsValidation(err))
}

func TestPlaceOrderNonCODNeedsPayment(t *testing.T) {
	f := newFixture(t, "")
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	_, err := f.engine.PlaceOrder(context.Background(), "s1", Request{DeliveryAddress: "x", PaymentMethod: "upi"})
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestPlaceOrderBucketFailureIsolated(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.orders.FailShop = 2
	f.fillCart(t, "s1", map[string]int{"1": 1, "5": 1}, nil)

	res, err := f.engine.PlaceOrder(ctx, "s1", Request{UserID: "u1", DeliveryAddress: "x"})
	require.NoError(t, err)
	require.Len(t, res.OrderIDs, 1)
	assert.Equal(t, []int{2}, res.FailedShops)
	assert.True(t, res.Partial())

	o, err := f.mem.GetOrder(ctx, res.FirstOrderID)
	require.NoError(t, err)
	assert.Equal(t, 1, o.ShopID)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.True(t, sess.Cart.Empty())
}

func TestPlaceOrderAllBucketsFail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.orders.FailAll = true
	f.fillCart(t, "s1", map[string]int{"1": 1, "5": 1}, nil)

	_, err := f.engine.PlaceOrder(ctx, "s1", Request{DeliveryAddress: "x"})
	assert.ErrorIs(t, err, models.ErrPersistence)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.Equal(t, 2, sess.Cart.Count())
}

func TestCODPendingFlag(t *testing.T) {
	f := newFixture(t, "")
	f.engine.cfg.CODPending = true
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	res, err := f.engine.PlaceOrder(context.Background(), "s1", Request{DeliveryAddress: "x"})
	require.NoError(t, err)
	o, err := f.mem.GetOrder(context.Background(), res.FirstOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
}

func TestPaymentFlow(t *testing.T) {
	f := newFixture(t, "secret")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 2, "2": 1}, nil)

	intent, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "12 Main St", PaymentMethod: "UPI"})
	require.NoError(t, err)
	// 109 + 15 + 5 + 6.45 tax
	assert.Equal(t, int64(13545), intent.AmountPaise)
	assert.Equal(t, "INR", intent.Currency)

	_, err = f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "12 Main St", PaymentMethod: "UPI"})
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	sig := payment.Sign("secret", intent.GatewayOrderID, "pay_1")
	res, err := f.engine.ConfirmPayment(ctx, "s1", "u1", Confirmation{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      sig,
	})
	require.NoError(t, err)
	require.Len(t, res.OrderIDs, 1)

	o, err := f.mem.GetOrder(ctx, res.FirstOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodUPI, o.PaymentMethod)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.False(t, sess.Processing())
	assert.True(t, sess.Cart.Empty())
}

func TestPaymentVerificationFailure(t *testing.T) {
	f := newFixture(t, "secret")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	intent, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "x", PaymentMethod: "Card"})
	require.NoError(t, err)

	_, err = f.engine.ConfirmPayment(ctx, "s1", "u1", Confirmation{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      "forged",
	})
	assert.ErrorIs(t, err, ErrPaymentVerification)

	orders, _ := f.mem.ListOrders(ctx, store.OrderFilter{})
	assert.Empty(t, orders)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.False(t, sess.Processing())
	assert.Equal(t, 1, sess.Cart.Count())
}

func TestConfirmWithoutPendingPayment(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.engine.ConfirmPayment(context.Background(), "s1", "u1", Confirmation{GatewayOrderID: "x", PaymentID: "y"})
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestPaymentFailedResetsFlagOnly(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	_, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "x", PaymentMethod: "UPI"})
	require.NoError(t, err)
	require.NoError(t, f.engine.PaymentFailed(ctx, "s1"))

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.False(t, sess.Processing())
	assert.Equal(t, 1, sess.Cart.Count())
}

func TestNewOrderIDFormat(t *testing.T) {
	for range 50 {
		assert.Regexp(t, `^ORD-[1-9]\d{4}$`, newOrderID())
	}
}

func TestConfirmPaymentPlacesFrozenCart(t *testing.T) {
	f := newFixture(t, "secret")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	intent, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "12 Main St", PaymentMethod: "UPI"})
	require.NoError(t, err)
	// 32 + 15 + 5 + 2.60 tax
	assert.Equal(t, int64(5460), intent.AmountPaise)

	// a write that slipped past the cart lock grows the live cart
	sess, err := f.sessions.Load(ctx, "s1")
	require.NoError(t, err)
	for range 10 {
		sess.Cart.Add("1")
		sess.Cart.Add("5")
	}
	require.NoError(t, f.sessions.Save(ctx, sess))

	res, err := f.engine.ConfirmPayment(ctx, "s1", "u1", Confirmation{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      payment.Sign("secret", intent.GatewayOrderID, "pay_1"),
	})
	require.NoError(t, err)
	require.Len(t, res.OrderIDs, 1)
	assert.Equal(t, intent.AmountPaise, toPaise(res.Breakdown.GrandTotal))

	o, err := f.mem.GetOrder(ctx, res.FirstOrderID)
	require.NoError(t, err)
	assert.Equal(t, 1, o.ShopID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(32)))
}

func TestConfirmPaymentRejectsRepricedOrder(t *testing.T) {
	f := newFixture(t, "secret")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 2}, nil)

	intent, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "x", PaymentMethod: "Card"})
	require.NoError(t, err)

	cfg, err := f.mem.PricingConfig(ctx)
	require.NoError(t, err)
	cfg.IsSurgeActive = true
	_, err = f.mem.SavePricingConfig(ctx, cfg)
	require.NoError(t, err)

	_, err = f.engine.ConfirmPayment(ctx, "s1", "u1", Confirmation{
		GatewayOrderID: intent.GatewayOrderID,
		PaymentID:      "pay_1",
		Signature:      payment.Sign("secret", intent.GatewayOrderID, "pay_1"),
	})
	assert.ErrorIs(t, err, ErrPaymentVerification)

	orders, _ := f.mem.ListOrders(ctx, store.OrderFilter{})
	assert.Empty(t, orders)

	sess, _ := f.sessions.Load(ctx, "s1")
	assert.False(t, sess.Processing())
	assert.Equal(t, 2, sess.Cart.Count())
}

func TestPlaceOrderBlockedDuringPayment(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"1": 1}, nil)

	intent, err := f.engine.StartPayment(ctx, "s1", Request{DeliveryAddress: "x", PaymentMethod: "UPI"})
	require.NoError(t, err)

	_, err = f.engine.PlaceOrder(ctx, "s1", Request{DeliveryAddress: "x"})
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	orders, _ := f.mem.ListOrders(ctx, store.OrderFilter{})
	assert.Empty(t, orders)

	// the pending payment survives, so the gateway callback still lands
	res, err := f.engine.ConfirmPayment(ctx, "s1", "u1", Confirmation{GatewayOrderID: intent.GatewayOrderID, PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Len(t, res.OrderIDs, 1)
}
