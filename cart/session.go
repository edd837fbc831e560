package cart

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/models"
)

var ErrPaymentInProgress = errors.New("a payment is already in progress")

// PendingPayment is the gateway order created for a session that is
// waiting on the payment confirmation callback. Items and Coupon are the
// cart as it was priced for AmountPaise; the paid orders are built from
// them, not from the live cart.
type PendingPayment struct {
	GatewayOrderID  string         `json:"gateway_order_id"`
	AmountPaise     int64          `json:"amount_paise"`
	DeliveryAddress string         `json:"delivery_address"`
	Method          string         `json:"method"`
	Items           map[string]int `json:"items"`
	Coupon          *models.Coupon `json:"coupon,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Session is one customer's cart plus the coupon and payment state that
// goes with it.
type Session struct {
	ID          string
	Cart        *Cart
	Coupon      *models.Coupon
	CouponError string
	Payment     *PendingPayment
}

func NewSession(id string) *Session {
	return &Session{ID: id, Cart: New()}
}

// ApplyCoupon validates code against the current cart total. On success the
// coupon replaces any earlier one and the error state is cleared. A rejected
// code leaves the applied coupon untouched.
func (s *Session) ApplyCoupon(code string, coupons []models.Coupon, cartTotal decimal.Decimal) error {
	c, err := coupon.Validate(code, coupons, cartTotal)
	if err != nil {
		s.CouponError = err.Error()
		return err
	}
	s.Coupon = c
	s.CouponError = ""
	return nil
}

func (s *Session) RemoveCoupon() {
	s.Coupon = nil
	s.CouponError = ""
}

// Processing reports whether a payment is in flight.
func (s *Session) Processing() bool {
	return s.Payment != nil
}

// Editable returns ErrPaymentInProgress while a payment is in flight. The
// cart and coupon are frozen until the gateway calls back.
func (s *Session) Editable() error {
	if s.Processing() {
		return ErrPaymentInProgress
	}
	return nil
}

// Freeze records the cart and coupon a payment is being taken for.
func (s *Session) Freeze(p PendingPayment) {
	p.Items = s.Cart.Items()
	if s.Coupon != nil {
		c := *s.Coupon
		p.Coupon = &c
	}
	s.Payment = &p
}

// ResetPayment clears the in-flight payment without touching the cart.
func (s *Session) ResetPayment() {
	s.Payment = nil
}

// Reset empties the cart after a successful order placement.
func (s *Session) Reset() {
	s.Cart.Clear()
	s.RemoveCoupon()
	s.Payment = nil
}

type sessionJSON struct {
	ID          string          `json:"id"`
	Items       map[string]int  `json:"items"`
	Coupon      *models.Coupon  `json:"coupon,omitempty"`
	CouponError string          `json:"coupon_error,omitempty"`
	Payment     *PendingPayment `json:"payment,omitempty"`
}

func (s *Session) MarshalJSON() ([]byte, error) {
	items := map[string]int{}
	if s.Cart != nil {
		items = s.Cart.Items()
	}
	return json.Marshal(sessionJSON{
		ID:          s.ID,
		Items:       items,
		Coupon:      s.Coupon,
		CouponError: s.CouponError,
		Payment:     s.Payment,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Cart = FromItems(raw.Items)
	s.Coupon = raw.Coupon
	s.CouponError = raw.CouponError
	s.Payment = raw.Payment
	return nil
}
