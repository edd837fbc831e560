package orderflow

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

func newTestService(t *testing.T, orders ...models.Order) (*Service, *store.Memory, *events.Recorder) {
	t.Helper()
	mem := store.NewMemory(models.PricingConfig{})
	for _, o := range orders {
		require.NoError(t, mem.CreateOrder(context.Background(), o))
	}
	rec := &events.Recorder{}
	return NewService(mem, rec, zaptest.NewLogger(t)), mem, rec
}

func order(id string, shopID int, status models.OrderStatus) models.Order {
	return models.Order{
		ID:          id,
		ShopID:      shopID,
		UserID:      "u1",
		Status:      status,
		Subtotal:    decimal.NewFromInt(100),
		TotalAmount: decimal.NewFromInt(115),
		Items:       []models.OrderItem{{ProductID: 1, Name: "Milk", Price: decimal.NewFromInt(50), Quantity: 2}},
	}
}

func TestServiceWalksHappyPath(t *testing.T) {
	svc, mem, rec := newTestService(t, order("ORD-10001", 1, models.OrderStatusPending))
	ctx := context.Background()

	for _, to := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusReady,
		models.OrderStatusOutForDelivery,
		models.OrderStatusCompleted,
	} {
		got, err := svc.MoveTo(ctx, 1, "ORD-10001", to)
		require.NoError(t, err, "move to %s", to)
		assert.Equal(t, to, got.Status)
	}

	stored, err := mem.GetOrder(ctx, "ORD-10001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)

	evs := rec.Events()
	require.Len(t, evs, 4)
	assert.Equal(t, models.OrderStatusPending, evs[0].FromStatus)
	assert.Equal(t, models.EventOrderStatusChanged, evs[3].EventType)
}

func TestServiceRejectsIllegalMove(t *testing.T) {
	svc, mem, rec := newTestService(t, order("ORD-10002", 1, models.OrderStatusPending))
	ctx := context.Background()

	_, err := svc.MoveTo(ctx, 1, "ORD-10002", models.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	stored, err := mem.GetOrder(ctx, "ORD-10002")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Empty(t, rec.Events())
}

func TestServiceRejectsOtherShop(t *testing.T) {
	svc, _, _ := newTestService(t, order("ORD-10003", 1, models.OrderStatusPending))

	_, err := svc.Apply(context.Background(), 2, "ORD-10003", ActionAccept)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestServiceTerminalStaysTerminal(t *testing.T) {
	svc, _, _ := newTestService(t, order("ORD-10004", 1, models.OrderStatusRejected))

	_, err := svc.Apply(context.Background(), 1, "ORD-10004", ActionAccept)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestBoard(t *testing.T) {
	svc, _, _ := newTestService(t,
		order("ORD-20001", 1, models.OrderStatusPending),
		order("ORD-20002", 1, models.OrderStatusReady),
		order("ORD-20003", 1, models.OrderStatusDelivered),
		order("ORD-20004", 1, models.OrderStatusRejected),
		order("ORD-20005", 2, models.OrderStatusPending),
	)

	b, err := svc.Board(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, b.Pending, 1)
	assert.Len(t, b.Active, 1)
	assert.Len(t, b.Completed, 1)
}
