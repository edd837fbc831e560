// Package pricing turns a cart into a fee breakdown. Intermediate amounts keep
// full precision; only tax and the grand total are rounded to two places.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

var hundred = decimal.NewFromInt(100)

type Breakdown struct {
	CartTotal      decimal.Decimal `json:"cart_total"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	CouponDiscount decimal.Decimal `json:"coupon_discount_amount"`
	GrandTotal     decimal.Decimal `json:"cart_grand_total"`
	ConfigVersion  int64           `json:"config_version"`
}

// CartTotal sums price × quantity. Entries whose product is not in the
// catalog are skipped.
func CartTotal(cart map[string]int, catalog models.ProductIndex) decimal.Decimal {
	total := decimal.Zero
	for key, qty := range cart {
		p, ok := catalog.Lookup(key)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

func DeliveryFee(cartTotal decimal.Decimal, cfg models.PricingConfig) decimal.Decimal {
	if !cartTotal.IsPositive() {
		return decimal.Zero
	}
	if cfg.IsSurgeActive {
		return cfg.DeliveryBase.Mul(cfg.SurgeMultiplier)
	}
	return cfg.DeliveryBase
}

func PlatformFee(cartTotal decimal.Decimal, cfg models.PricingConfig) decimal.Decimal {
	if !cartTotal.IsPositive() {
		return decimal.Zero
	}
	return cfg.PlatformFee
}

// Tax applies GST to cart total plus both fees, rounded to two places.
func Tax(cartTotal, deliveryFee, platformFee decimal.Decimal, cfg models.PricingConfig) decimal.Decimal {
	if !cartTotal.IsPositive() {
		return decimal.Zero
	}
	taxable := cartTotal.Add(deliveryFee).Add(platformFee)
	return taxable.Mul(cfg.GSTPercent).Div(hundred).Round(2)
}

// CouponDiscount never exceeds the cart total.
func CouponDiscount(cartTotal decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	discount := decimal.Zero
	switch coupon.Type {
	case models.CouponFlat:
		discount = coupon.Discount
	case models.CouponPercent:
		discount = cartTotal.Mul(coupon.Discount).Div(hundred)
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, decimal.Max(cartTotal, decimal.Zero))
}

// Calculate prices the cart against a single config snapshot.
func Calculate(cart map[string]int, catalog models.ProductIndex, cfg models.PricingConfig, coupon *models.Coupon) Breakdown {
	cartTotal := CartTotal(cart, catalog)
	b := Breakdown{
		CartTotal:      cartTotal,
		DeliveryFee:    decimal.Zero,
		PlatformFee:    decimal.Zero,
		TaxAmount:      decimal.Zero,
		CouponDiscount: CouponDiscount(cartTotal, coupon),
		GrandTotal:     decimal.Zero,
		ConfigVersion:  cfg.Version,
	}
	if !cartTotal.IsPositive() {
		return b
	}
	b.DeliveryFee = DeliveryFee(cartTotal, cfg)
	b.PlatformFee = PlatformFee(cartTotal, cfg)
	b.TaxAmount = Tax(cartTotal, b.DeliveryFee, b.PlatformFee, cfg)

	total := cartTotal.Add(b.DeliveryFee).Add(b.PlatformFee).Add(b.TaxAmount).Sub(b.CouponDiscount)
	b.GrandTotal = decimal.Max(total, decimal.Zero).Round(2)
	return b
}

// DiscountShare allocates a cart-wide discount to one shop bucket in
// proportion to the bucket's share of the cart subtotal.
func DiscountShare(bucketSubtotal, cartSubtotal, globalDiscount decimal.Decimal) decimal.Decimal {
	if !cartSubtotal.IsPositive() || !globalDiscount.IsPositive() {
		return decimal.Zero
	}
	return bucketSubtotal.Div(cartSubtotal).Mul(globalDiscount)
}
