// Package cart holds a customer's uncommitted selection. Quantities are
// always positive; an entry that would drop to zero is deleted.
package cart

import (
	"cmp"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

type Cart struct {
	mu    sync.Mutex
	items map[string]int
}

func New() *Cart {
	return &Cart{items: make(map[string]int)}
}

// FromItems rebuilds a cart, dropping non-positive quantities.
func FromItems(items map[string]int) *Cart {
	c := New()
	for k, v := range items {
		if v > 0 {
			c.items[k] = v
		}
	}
	return c
}

func (c *Cart) Add(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[productID]++
}

// Remove takes one unit off. Absent ids are a no-op.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch qty := c.items[productID]; {
	case qty > 1:
		c.items[productID] = qty - 1
	case qty == 1:
		delete(c.items, productID)
	}
}

func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[productID]
}

// Count is the sum of all quantities.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, qty := range c.items {
		n += qty
	}
	return n
}

func (c *Cart) Empty() bool {
	return c.Count() == 0
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

// Items returns a copy of the id → quantity mapping.
func (c *Cart) Items() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.items)
}

// Details joins the cart against the catalog, ordered by product id.
// Entries whose product is missing from the catalog are dropped.
func (c *Cart) Details(catalog models.ProductIndex) iter.Seq[models.OrderItem] {
	items := c.Items()
	return func(yield func(models.OrderItem) bool) {
		lines := make([]models.OrderItem, 0, len(items))
		for key, qty := range items {
			p, ok := catalog.Lookup(key)
			if !ok {
				continue
			}
			lines = append(lines, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  qty,
				ImageURL:  p.ImageURL,
			})
		}
		slices.SortFunc(lines, func(x, y models.OrderItem) int { return cmp.Compare(x.ProductID, y.ProductID) })
		for _, item := range lines {
			if !yield(item) {
				return
			}
		}
	}
}
