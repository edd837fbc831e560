package models

import "github.com/shopspring/decimal"

type RiderStatus string

const (
	RiderStatusOnline  RiderStatus = "Online"
	RiderStatusOffline RiderStatus = "Offline"
)

type Rider struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	VehicleType     string          `json:"vehicle_type"`
	Status          RiderStatus     `json:"status"`
	Earnings        decimal.Decimal `json:"earnings"`
	CompletedOrders int             `json:"completed_orders"`
}

type RiderInput struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type"`
}

// Payout is derived from a fulfilled order and never stored.
type Payout struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	OrderID      string          `json:"order_id"`
	OrderAmount  decimal.Decimal `json:"order_amount"`
	Commission   decimal.Decimal `json:"commission"`
	PayoutAmount decimal.Decimal `json:"payout_amount"`
	Status       string          `json:"status"`
}
