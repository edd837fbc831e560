// Package checkout turns a priced cart into one order per shop.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/cart"
	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

var (
	ErrPaymentRequired     = errors.New("payment must be completed before placing this order")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrPaymentInProgress   = cart.ErrPaymentInProgress
)

// Catalog is the product lookup checkout prices against.
type Catalog interface {
	Index(ctx context.Context) models.ProductIndex
}

// Gateway creates payment orders and verifies their callbacks.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64) (string, error)
	Verify(gatewayOrderID, paymentID, signature string) error
	KeyID() string
}

type Config struct {
	// ShopDeliveryFee is charged on every per-shop order. It is separate
	// from the delivery fee shown on the cart.
	ShopDeliveryFee decimal.Decimal
	// CODPending starts cash-on-delivery orders at Pending instead of
	// Confirmed.
	CODPending bool
}

type Engine struct {
	catalog   Catalog
	pricing   *pricing.Service
	orders    store.OrderRepository
	sessions  cart.SessionStore
	gateway   Gateway
	publisher events.Publisher
	cfg       Config
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewEngine(
	catalog Catalog,
	pricingSvc *pricing.Service,
	orders store.OrderRepository,
	sessions cart.SessionStore,
	gateway Gateway,
	publisher events.Publisher,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalog:   catalog,
		pricing:   pricingSvc,
		orders:    orders,
		sessions:  sessions,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     newOrderID,
	}
}

func newOrderID() string {
	return fmt.Sprintf("ORD-%05d", rand.IntN(90000)+10000)
}

type Request struct {
	UserID          string `json:"-"`
	DeliveryAddress string `json:"delivery_address"`
	PaymentMethod   string `json:"payment_method"`
}

// Result reports what a checkout created. FirstOrderID is the order the
// customer is sent to; FailedShops lists buckets that could not be saved.
type Result struct {
	OrderIDs     []string          `json:"order_ids"`
	FirstOrderID string            `json:"order_id"`
	FailedShops  []int             `json:"failed_shops,omitempty"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
}

func normalizeMethod(method string) (string, error) {
	if method == "" {
		return models.PaymentMethodCOD, nil
	}
	for _, m := range []string{models.PaymentMethodCOD, models.PaymentMethodUPI, models.PaymentMethodCard} {
		if strings.EqualFold(method, m) {
			return m, nil
		}
	}
	return "", models.NewValidationError("payment_method", "must be COD, UPI or Card")
}

func validateAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", models.NewValidationError("delivery_address", "Please enter a delivery address")
	}
	return addr, nil
}

// Quote prices a session's cart for display.
func (e *Engine) Quote(ctx context.Context, sess *cart.Session) (pricing.Breakdown, error) {
	return e.pricing.Quote(ctx, sess.Cart.Items(), e.catalog.Index(ctx), sess.Coupon)
}

// PlaceOrder checks out a cash-on-delivery cart. Card and UPI carts go
// through StartPayment and ConfirmPayment instead.
func (e *Engine) PlaceOrder(ctx context.Context, sessionID string, req Request) (Result, error) {
	method, err := normalizeMethod(req.PaymentMethod)
	if err != nil {
		return Result{}, err
	}
	if method != models.PaymentMethodCOD {
		return Result{}, ErrPaymentRequired
	}
	req.PaymentMethod = method

	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if err := sess.Editable(); err != nil {
		return Result{}, err
	}
	return e.place(ctx, sess, sess.Cart.Items(), sess.Coupon, req, unpaid)
}

// unpaid marks a placement with no gateway amount to match.
const unpaid = -1

// toPaise converts a rupee amount to the integer paise the gateway charges.
func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// place splits items and writes one order per shop. Each bucket is its own
// write; a failed bucket is logged and skipped. The session is reset as soon
// as one order exists. Unless paidPaise is unpaid it must equal the grand
// total or nothing is written.
func (e *Engine) place(ctx context.Context, sess *cart.Session, items map[string]int, coupon *models.Coupon, req Request, paidPaise int64) (Result, error) {
	ctx, span := otel.Tracer("minidrop").Start(ctx, "PlaceOrder")
	defer span.End()

	addr, err := validateAddress(req.DeliveryAddress)
	if err != nil {
		return Result{}, err
	}

	cfg, err := e.pricing.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	catalog := e.catalog.Index(ctx)
	breakdown := pricing.Calculate(items, catalog, cfg, coupon)
	if !breakdown.CartTotal.IsPositive() {
		return Result{}, models.NewValidationError("cart", "Cart is empty")
	}
	if paidPaise != unpaid && toPaise(breakdown.GrandTotal) != paidPaise {
		middleware.RecordPayment("amount_mismatch")
		return Result{}, fmt.Errorf("%w: paid %d paise, order now totals %d paise",
			ErrPaymentVerification, paidPaise, toPaise(breakdown.GrandTotal))
	}

	buckets := Split(items, catalog, breakdown.CouponDiscount, e.cfg.ShopDeliveryFee)
	span.SetAttributes(
		attribute.Int("checkout.buckets", len(buckets)),
		attribute.String("checkout.payment_method", req.PaymentMethod),
		attribute.Int64("pricing.version", cfg.Version),
	)

	now := e.now()
	status := orderflow.InitialStatus(req.PaymentMethod, e.cfg.CODPending)
	result := Result{Breakdown: breakdown, OrderIDs: []string{}}

	for _, b := range buckets {
		order := models.Order{
			ID:              e.newID(),
			ShopID:          b.ShopID,
			UserID:          req.UserID,
			Items:           b.Items,
			Subtotal:        b.Subtotal,
			DeliveryFee:     b.DeliveryFee,
			TotalAmount:     b.Total,
			Status:          status,
			Date:            now.Format("2006-01-02"),
			Time:            now.Format("15:04"),
			DeliveryAddress: addr,
			PaymentMethod:   req.PaymentMethod,
			CreatedAt:       now,
		}
		if err := e.orders.CreateOrder(ctx, order); err != nil {
			span.RecordError(err)
			middleware.RecordCheckoutBucketFailed()
			e.logger.Error("Failed to create order for shop",
				zap.String("trace_id", middleware.GetTraceID(ctx)),
				zap.String("order_id", order.ID),
				zap.Int("shop_id", b.ShopID),
				zap.Error(err),
			)
			result.FailedShops = append(result.FailedShops, b.ShopID)
			continue
		}

		middleware.RecordOrderCreated(req.PaymentMethod)
		result.OrderIDs = append(result.OrderIDs, order.ID)
		e.logger.Info("Order created",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("order_id", order.ID),
			zap.Int("shop_id", order.ShopID),
			zap.String("user_id", order.UserID),
			zap.String("total", order.TotalAmount.String()),
			zap.String("status", string(order.Status)),
		)
		if err := e.publisher.Publish(ctx, events.OrderCreated(order)); err != nil {
			e.logger.Error("Failed to publish order_created event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if len(result.OrderIDs) == 0 {
		return result, fmt.Errorf("no order could be saved: %w", models.ErrPersistence)
	}
	result.FirstOrderID = result.OrderIDs[0]

	sess.Reset()
	if err := e.sessions.Save(ctx, sess); err != nil {
		e.logger.Error("Failed to clear cart after checkout", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return result, nil
}

// PaymentIntent is what the client needs to open the gateway checkout.
type PaymentIntent struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	AmountPaise    int64           `json:"amount"`
	Amount         decimal.Decimal `json:"amount_rupees"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
}

// StartPayment creates a gateway order for the cart's grand total and marks
// the session as processing a payment.
func (e *Engine) StartPayment(ctx context.Context, sessionID string, req Request) (PaymentIntent, error) {
	method, err := normalizeMethod(req.PaymentMethod)
	if err != nil {
		return PaymentIntent{}, err
	}
	if method == models.PaymentMethodCOD {
		return PaymentIntent{}, models.NewValidationError("payment_method", "cash orders do not need a payment")
	}
	addr, err := validateAddress(req.DeliveryAddress)
	if err != nil {
		return PaymentIntent{}, err
	}

	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return PaymentIntent{}, err
	}
	if sess.Processing() {
		return PaymentIntent{}, ErrPaymentInProgress
	}
	breakdown, err := e.Quote(ctx, sess)
	if err != nil {
		return PaymentIntent{}, err
	}
	if !breakdown.CartTotal.IsPositive() {
		return PaymentIntent{}, models.NewValidationError("cart", "Cart is empty")
	}

	amountPaise := toPaise(breakdown.GrandTotal)
	gatewayOrderID, err := e.gateway.CreateOrder(ctx, amountPaise)
	if err != nil {
		middleware.RecordPayment("initiate_failed")
		return PaymentIntent{}, fmt.Errorf("initiate payment: %w", err)
	}

	sess.Freeze(cart.PendingPayment{
		GatewayOrderID:  gatewayOrderID,
		AmountPaise:     amountPaise,
		DeliveryAddress: addr,
		Method:          method,
		CreatedAt:       e.now(),
	})
	if err := e.sessions.Save(ctx, sess); err != nil {
		return PaymentIntent{}, err
	}
	middleware.RecordPayment("initiated")

	return PaymentIntent{
		GatewayOrderID: gatewayOrderID,
		AmountPaise:    amountPaise,
		Amount:         breakdown.GrandTotal,
		Currency:       "INR",
		KeyID:          e.gateway.KeyID(),
	}, nil
}

type Confirmation struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature"`
}

// ConfirmPayment is the gateway success callback. The signature is checked
// before anything is written; on failure the processing flag is reset and
// no order is created. Orders are built from the cart frozen by
// StartPayment and must still price to the amount paid.
func (e *Engine) ConfirmPayment(ctx context.Context, sessionID, userID string, c Confirmation) (Result, error) {
	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	pending := sess.Payment
	if pending == nil {
		return Result{}, ErrPaymentRequired
	}

	verifyErr := e.gateway.Verify(c.GatewayOrderID, c.PaymentID, c.Signature)
	if verifyErr == nil && c.GatewayOrderID != pending.GatewayOrderID {
		verifyErr = errors.New("gateway order id does not match the pending payment")
	}
	if verifyErr != nil {
		middleware.RecordPayment("verification_failed")
		e.logger.Warn("Payment verification failed",
			zap.String("session_id", sessionID),
			zap.String("gateway_order_id", c.GatewayOrderID),
			zap.Error(verifyErr),
		)
		sess.ResetPayment()
		if err := e.sessions.Save(ctx, sess); err != nil {
			e.logger.Error("Failed to reset payment state", zap.String("session_id", sessionID), zap.Error(err))
		}
		return Result{}, fmt.Errorf("%w: %v", ErrPaymentVerification, verifyErr)
	}
	middleware.RecordPayment("success")

	result, err := e.place(ctx, sess, pending.Items, pending.Coupon, Request{
		UserID:          userID,
		DeliveryAddress: pending.DeliveryAddress,
		PaymentMethod:   pending.Method,
	}, pending.AmountPaise)
	if err != nil {
		e.logger.Error("Paid checkout could not be placed",
			zap.String("session_id", sessionID),
			zap.String("payment_id", c.PaymentID),
			zap.Error(err),
		)
		sess.ResetPayment()
		if saveErr := e.sessions.Save(ctx, sess); saveErr != nil {
			e.logger.Error("Failed to reset payment state", zap.String("session_id", sessionID), zap.Error(saveErr))
		}
		return result, err
	}
	e.logger.Info("Paid checkout placed",
		zap.String("payment_id", c.PaymentID),
		zap.Strings("order_ids", result.OrderIDs),
	)
	return result, nil
}

// PaymentFailed is the gateway failure or cancel callback. Only the
// processing flag is reset.
func (e *Engine) PaymentFailed(ctx context.Context, sessionID string) error {
	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	middleware.RecordPayment("failed")
	sess.ResetPayment()
	return e.sessions.Save(ctx, sess)
}

// Partial reports whether some but not all shops got an order.
func (r Result) Partial() bool {
	return len(r.FailedShops) > 0 && len(r.OrderIDs) > 0
}
