package checkout

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
)

// Bucket is the part of a cart that becomes one shop's order.
type Bucket struct {
	ShopID        int                `json:"shop_id"`
	Items         []models.OrderItem `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	DiscountShare decimal.Decimal    `json:"discount_share"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"`
	Total         decimal.Decimal    `json:"total"`
}

// Split groups cart lines by owning shop. Lines whose product is not in the
// catalog are left out. The cart-wide discount is shared between buckets in
// proportion to their subtotals, and every bucket pays deliveryFee. Shares
// and totals are rounded to two places.
// Buckets are ordered by shop id, items by product id.
func Split(cart map[string]int, catalog models.ProductIndex, globalDiscount, deliveryFee decimal.Decimal) []Bucket {
	byShop := make(map[int]*Bucket)
	cartSubtotal := decimal.Zero

	for key, qty := range cart {
		p, ok := catalog.Lookup(key)
		if !ok || qty <= 0 {
			continue
		}
		b, ok := byShop[p.ShopID]
		if !ok {
			b = &Bucket{ShopID: p.ShopID, Subtotal: decimal.Zero}
			byShop[p.ShopID] = b
		}
		item := models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			ImageURL:  p.ImageURL,
		}
		b.Items = append(b.Items, item)
		b.Subtotal = b.Subtotal.Add(item.LineTotal())
		cartSubtotal = cartSubtotal.Add(item.LineTotal())
	}

	buckets := make([]Bucket, 0, len(byShop))
	for _, b := range byShop {
		slices.SortFunc(b.Items, func(x, y models.OrderItem) int { return cmp.Compare(x.ProductID, y.ProductID) })
		b.DeliveryFee = deliveryFee
		buckets = append(buckets, *b)
	}
	slices.SortFunc(buckets, func(x, y Bucket) int { return cmp.Compare(x.ShopID, y.ShopID) })

	// Shares and totals are stored amounts, so they are cut to paise here.
	// The last bucket takes whatever rounding left over.
	discount := globalDiscount.Round(2)
	remaining := discount
	for i := range buckets {
		b := &buckets[i]
		if i == len(buckets)-1 {
			b.DiscountShare = decimal.Max(remaining, decimal.Zero)
		} else {
			b.DiscountShare = pricing.DiscountShare(b.Subtotal, cartSubtotal, discount).Round(2)
		}
		remaining = remaining.Sub(b.DiscountShare)
		b.Total = decimal.Max(b.Subtotal.Add(b.DeliveryFee).Sub(b.DiscountShare), decimal.Zero).Round(2)
	}
	return buckets
}
