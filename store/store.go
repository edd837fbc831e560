// Package store defines the persistence contracts the marketplace core
// depends on. Implementations are chosen once at startup.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

type CatalogRepository interface {
	ListShops(ctx context.Context) ([]models.Shop, error)
	GetShop(ctx context.Context, id int) (models.Shop, error)
	CreateShop(ctx context.Context, shop models.Shop) (models.Shop, error)
	UpdateShop(ctx context.Context, shop models.Shop) error
	DeleteShop(ctx context.Context, id int) error

	// ListProducts returns every product, or only those of shopID when it is non-zero.
	ListProducts(ctx context.Context, shopID int) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) error
	SetProductAvailability(ctx context.Context, id int, available bool) error

	ListCategories(ctx context.Context) ([]models.Category, error)
}

type OrderFilter struct {
	UserID  string
	ShopID  int
	RiderID string
	Status  models.OrderStatus
}

type OrderRepository interface {
	// CreateOrder writes the order and its items together or not at all.
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateStatus moves the order from -> to only if it is still at from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	// AssignRider moves a Ready, unassigned order to Out for Delivery.
	AssignRider(ctx context.Context, id, riderID string) error
	// CompleteDelivery marks the rider's order Delivered and credits the
	// rider in the same transaction.
	CompleteDelivery(ctx context.Context, id, riderID string, earning decimal.Decimal) error
}

type RiderRepository interface {
	GetRider(ctx context.Context, id string) (models.Rider, error)
	ListRiders(ctx context.Context) ([]models.Rider, error)
	CreateRider(ctx context.Context, r models.Rider) error
	SetRiderStatus(ctx context.Context, id string, status models.RiderStatus) error
}

type CouponRepository interface {
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	SaveCoupon(ctx context.Context, c models.Coupon) error
}

type PricingStore interface {
	PricingConfig(ctx context.Context) (models.PricingConfig, error)
	// SavePricingConfig overwrites the config and returns it with its new version.
	SavePricingConfig(ctx context.Context, cfg models.PricingConfig) (models.PricingConfig, error)
}

// Store is everything the service needs from a backend.
type Store interface {
	CatalogRepository
	OrderRepository
	RiderRepository
	CouponRepository
	PricingStore
	Ping(ctx context.Context) error
	Close() error
}
