package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusReady          OrderStatus = "Ready"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusRejected       OrderStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusRejected, OrderStatusDelivered, OrderStatusCompleted:
		return true
	}
	return false
}

// Fulfilled reports whether the order counts towards payouts and rider history.
func (s OrderStatus) Fulfilled() bool {
	return s == OrderStatusDelivered || s == OrderStatusCompleted
}

// Active reports whether the shop still has work to do on the order.
func (s OrderStatus) Active() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusReady, OrderStatusOutForDelivery:
		return true
	}
	return false
}

const (
	PaymentMethodCOD  = "COD"
	PaymentMethodUPI  = "UPI"
	PaymentMethodCard = "Card"
)

// OrderItem is a snapshot of a product taken when the order is created.
type OrderItem struct {
	OrderID   string          `json:"order_id,omitempty"`
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	ShopID          int             `json:"shop_id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method"`
	RiderID         *string         `json:"rider_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Clone returns a deep copy so stored orders are never aliased by callers.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.RiderID != nil {
		id := *o.RiderID
		c.RiderID = &id
	}
	return c
}

type OrderEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"` // order_created, order_status_changed
	OrderID    string          `json:"order_id"`
	ShopID     int             `json:"shop_id"`
	UserID     string          `json:"user_id"`
	RiderID    string          `json:"rider_id,omitempty"`
	FromStatus OrderStatus     `json:"from_status,omitempty"`
	Status     OrderStatus     `json:"status"`
	Total      decimal.Decimal `json:"total_amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)
