// Package events carries order lifecycle notifications out of the core.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type Nop struct{}

func (Nop) Publish(context.Context, models.OrderEvent) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (r *Recorder) Publish(_ context.Context, event models.OrderEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []models.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OrderEvent(nil), r.events...)
}

func OrderCreated(o models.Order) models.OrderEvent {
	return models.OrderEvent{
		EventID:    uuid.NewString(),
		EventType:  models.EventOrderCreated,
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.TotalAmount,
		OccurredAt: time.Now().UTC(),
	}
}

func StatusChanged(o models.Order, from, to models.OrderStatus) models.OrderEvent {
	e := models.OrderEvent{
		EventID:    uuid.NewString(),
		EventType:  models.EventOrderStatusChanged,
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		UserID:     o.UserID,
		FromStatus: from,
		Status:     to,
		Total:      o.TotalAmount,
		OccurredAt: time.Now().UTC(),
	}
	if o.RiderID != nil {
		e.RiderID = *o.RiderID
	}
	return e
}
