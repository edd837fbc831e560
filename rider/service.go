// Package rider matches Ready orders to online riders and settles deliveries.
package rider

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

var (
	ErrRiderOffline = errors.New("rider is offline")
	ErrAlreadyTaken = errors.New("order already taken by another rider")
	ErrNotAssigned  = errors.New("order is not assigned to this rider")
)

type Service struct {
	orders    store.OrderRepository
	riders    store.RiderRepository
	publisher events.Publisher
	earning   decimal.Decimal
	logger    *zap.Logger
}

// NewService builds the assignment service. earning is credited to the
// rider for every delivered order.
func NewService(orders store.OrderRepository, riders store.RiderRepository, publisher events.Publisher, earning decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{
		orders:    orders,
		riders:    riders,
		publisher: publisher,
		earning:   earning,
		logger:    logger,
	}
}

// Available is every Ready order on the platform.
func (s *Service) Available(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, store.OrderFilter{Status: models.OrderStatusReady})
	if err != nil {
		return nil, err
	}
	available := orders[:0]
	for _, o := range orders {
		if o.RiderID == nil {
			available = append(available, o)
		}
	}
	return available, nil
}

// Accept assigns a Ready order to an online rider. The store only assigns
// if the order is still Ready and unassigned, so of several concurrent
// accepts exactly one succeeds.
func (s *Service) Accept(ctx context.Context, orderID, riderID string) (models.Order, error) {
	ctx, span := otel.Tracer("minidrop").Start(ctx, "AcceptOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("rider.id", riderID))

	r, err := s.riders.GetRider(ctx, riderID)
	if err != nil {
		return models.Order{}, err
	}
	if r.Status != models.RiderStatusOnline {
		middleware.RecordRiderAccept("offline")
		return models.Order{}, ErrRiderOffline
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	to, err := orderflow.Next(order.Status, orderflow.ActorRider, orderflow.ActionPickup)
	if err != nil {
		if order.RiderID != nil {
			middleware.RecordRiderAccept("taken")
			return models.Order{}, ErrAlreadyTaken
		}
		middleware.RecordRiderAccept("illegal")
		return models.Order{}, err
	}

	if err := s.orders.AssignRider(ctx, orderID, riderID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			middleware.RecordRiderAccept("taken")
			return models.Order{}, ErrAlreadyTaken
		}
		span.RecordError(err)
		return models.Order{}, fmt.Errorf("assign order %s: %w", orderID, err)
	}
	middleware.RecordRiderAccept("ok")

	from := order.Status
	order.Status = to
	order.RiderID = &riderID
	s.logger.Info("Order accepted by rider",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("order_id", orderID),
		zap.String("rider_id", riderID),
	)
	s.publish(ctx, order, from)
	return order, nil
}

// Deliver marks the rider's order Delivered and credits the rider.
func (s *Service) Deliver(ctx context.Context, orderID, riderID string) (models.Order, error) {
	ctx, span := otel.Tracer("minidrop").Start(ctx, "DeliverOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("rider.id", riderID))

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.RiderID == nil || *order.RiderID != riderID {
		return models.Order{}, ErrNotAssigned
	}
	to, err := orderflow.Next(order.Status, orderflow.ActorRider, orderflow.ActionDeliver)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.orders.CompleteDelivery(ctx, orderID, riderID, s.earning); err != nil {
		span.RecordError(err)
		return models.Order{}, fmt.Errorf("complete delivery %s: %w", orderID, err)
	}

	from := order.Status
	order.Status = to
	s.logger.Info("Order delivered",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("order_id", orderID),
		zap.String("rider_id", riderID),
		zap.String("earning", s.earning.String()),
	)
	s.publish(ctx, order, from)
	return order, nil
}

func (s *Service) publish(ctx context.Context, order models.Order, from models.OrderStatus) {
	if err := s.publisher.Publish(ctx, events.StatusChanged(order, from, order.Status)); err != nil {
		s.logger.Error("Failed to publish order_status_changed event",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *Service) SetStatus(ctx context.Context, riderID string, status models.RiderStatus) (models.Rider, error) {
	if status != models.RiderStatusOnline && status != models.RiderStatusOffline {
		return models.Rider{}, models.NewValidationError("status", "must be Online or Offline")
	}
	if err := s.riders.SetRiderStatus(ctx, riderID, status); err != nil {
		return models.Rider{}, err
	}
	return s.riders.GetRider(ctx, riderID)
}

func (s *Service) Profile(ctx context.Context, riderID string) (models.Rider, error) {
	return s.riders.GetRider(ctx, riderID)
}

// Assigned is the rider's orders currently out for delivery.
func (s *Service) Assigned(ctx context.Context, riderID string) ([]models.Order, error) {
	return s.orders.ListOrders(ctx, store.OrderFilter{RiderID: riderID, Status: models.OrderStatusOutForDelivery})
}

// History is the rider's fulfilled orders, newest first.
func (s *Service) History(ctx context.Context, riderID string) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, store.OrderFilter{RiderID: riderID})
	if err != nil {
		return nil, err
	}
	history := orders[:0]
	for _, o := range orders {
		if o.Status.Fulfilled() {
			history = append(history, o)
		}
	}
	return history, nil
}

func (s *Service) List(ctx context.Context) ([]models.Rider, error) {
	return s.riders.ListRiders(ctx)
}

// Register onboards a rider. New riders start Offline with no earnings.
func (s *Service) Register(ctx context.Context, in models.RiderInput) (models.Rider, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Rider{}, models.NewValidationError("name", "is required")
	}
	r := models.Rider{
		ID:          fmt.Sprintf("r%04d", rand.IntN(9000)+1000),
		Name:        name,
		Phone:       strings.TrimSpace(in.Phone),
		VehicleType: in.VehicleType,
		Status:      models.RiderStatusOffline,
		Earnings:    decimal.Zero,
	}
	if r.VehicleType == "" {
		r.VehicleType = "Bike"
	}
	if err := s.riders.CreateRider(ctx, r); err != nil {
		return models.Rider{}, fmt.Errorf("create rider: %w", err)
	}
	s.logger.Info("Rider registered", zap.String("rider_id", r.ID), zap.String("name", r.Name))
	return r, nil
}
