// Package payout projects shop payouts from fulfilled orders. Nothing here is
// stored; every call walks the orders again, so cost is linear in the shop's
// order count.
package payout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// CommissionRate is the platform's cut of every order subtotal.
var CommissionRate = decimal.NewFromFloat(0.10)

const StatusProcessed = "Processed"

// Ledger returns one payout per Delivered or Completed order, in the order
// given.
func Ledger(orders []models.Order, rate decimal.Decimal) []models.Payout {
	payouts := make([]models.Payout, 0, len(orders))
	for _, o := range orders {
		if !o.Status.Fulfilled() {
			continue
		}
		commission := o.Subtotal.Mul(rate)
		payouts = append(payouts, models.Payout{
			ID:           "PAY-" + o.ID,
			Date:         o.Date,
			OrderID:      o.ID,
			OrderAmount:  o.Subtotal,
			Commission:   commission,
			PayoutAmount: o.Subtotal.Sub(commission),
			Status:       StatusProcessed,
		})
	}
	return payouts
}

func TotalEarnings(payouts []models.Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.PayoutAmount)
	}
	return total
}

type Summary struct {
	Payouts       []models.Payout `json:"payouts"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

// Service reads a shop's orders and projects them.
type Service struct {
	orders store.OrderRepository
	rate   decimal.Decimal
}

func NewService(orders store.OrderRepository, rate decimal.Decimal) *Service {
	return &Service{orders: orders, rate: rate}
}

func (s *Service) ForShop(ctx context.Context, shopID int) (Summary, error) {
	orders, err := s.orders.ListOrders(ctx, store.OrderFilter{ShopID: shopID})
	if err != nil {
		return Summary{}, err
	}
	payouts := Ledger(orders, s.rate)
	return Summary{Payouts: payouts, TotalEarnings: TotalEarnings(payouts)}, nil
}
