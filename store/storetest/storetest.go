// Package storetest has repository wrappers for injecting failures in tests.
package storetest

import (
	"context"
	"fmt"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// FailingOrders fails CreateOrder for one shop, or for every shop when
// FailAll is set. Everything else goes to the wrapped repository.
type FailingOrders struct {
	store.OrderRepository
	FailShop int
	FailAll  bool
}

func (f *FailingOrders) CreateOrder(ctx context.Context, order models.Order) error {
	if f.FailAll || (f.FailShop != 0 && order.ShopID == f.FailShop) {
		return fmt.Errorf("insert order %s: %w", order.ID, models.ErrPersistence)
	}
	return f.OrderRepository.CreateOrder(ctx, order)
}
