package orderflow

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

var ErrNotOwner = errors.New("order belongs to another shop")

// Service applies shop-owner and payment driven transitions.
type Service struct {
	orders    store.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(orders store.OrderRepository, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{orders: orders, publisher: publisher, logger: logger}
}

// Apply performs action on behalf of the owner of shopID.
func (s *Service) Apply(ctx context.Context, shopID int, orderID string, action Action) (models.Order, error) {
	order, err := s.ownedOrder(ctx, shopID, orderID)
	if err != nil {
		return models.Order{}, err
	}
	return s.transition(ctx, order, ActorShop, action)
}

// MoveTo moves a shop's order to the requested status, if the table has an
// action for it.
func (s *Service) MoveTo(ctx context.Context, shopID int, orderID string, to models.OrderStatus) (models.Order, error) {
	order, err := s.ownedOrder(ctx, shopID, orderID)
	if err != nil {
		return models.Order{}, err
	}
	action, err := ActionFor(order.Status, to, ActorShop)
	if err != nil {
		middleware.RecordTransition(string(ActorShop), string(to), "rejected")
		return models.Order{}, err
	}
	return s.transition(ctx, order, ActorShop, action)
}

func (s *Service) transition(ctx context.Context, order models.Order, actor Actor, action Action) (models.Order, error) {
	ctx, span := otel.Tracer("minidrop").Start(ctx, "OrderTransition")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.from", string(order.Status)),
		attribute.String("actor", string(actor)),
		attribute.String("action", string(action)),
	)

	to, err := Next(order.Status, actor, action)
	if err != nil {
		middleware.RecordTransition(string(actor), string(action), "rejected")
		return models.Order{}, err
	}

	from := order.Status
	if err := s.orders.UpdateStatus(ctx, order.ID, from, to); err != nil {
		span.RecordError(err)
		middleware.RecordTransition(string(actor), string(to), "conflict")
		return models.Order{}, fmt.Errorf("update order %s: %w", order.ID, err)
	}
	order.Status = to
	middleware.RecordTransition(string(actor), string(to), "ok")

	s.logger.Info("Order status changed",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("order_id", order.ID),
		zap.Int("shop_id", order.ShopID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", string(actor)),
	)

	if err := s.publisher.Publish(ctx, events.StatusChanged(order, from, to)); err != nil {
		s.logger.Error("Failed to publish order_status_changed event",
			zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (s *Service) ownedOrder(ctx context.Context, shopID int, orderID string) (models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.ShopID != shopID {
		return models.Order{}, ErrNotOwner
	}
	return order, nil
}

// Board groups a shop's orders the way the shop dashboard shows them.
type Board struct {
	Pending   []models.Order `json:"pending"`
	Active    []models.Order `json:"active"`
	Completed []models.Order `json:"completed"`
}

func (s *Service) Board(ctx context.Context, shopID int) (Board, error) {
	orders, err := s.orders.ListOrders(ctx, store.OrderFilter{ShopID: shopID})
	if err != nil {
		return Board{}, err
	}
	b := Board{
		Pending:   []models.Order{},
		Active:    []models.Order{},
		Completed: []models.Order{},
	}
	for _, o := range orders {
		switch {
		case o.Status == models.OrderStatusPending:
			b.Pending = append(b.Pending, o)
		case o.Status.Active():
			b.Active = append(b.Active, o)
		case o.Status.Fulfilled():
			b.Completed = append(b.Completed, o)
		}
	}
	return b, nil
}
