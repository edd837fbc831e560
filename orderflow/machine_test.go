package orderflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		from   models.OrderStatus
		actor  Actor
		action Action
		want   models.OrderStatus
		ok     bool
	}{
		{"shop accepts pending", models.OrderStatusPending, ActorShop, ActionAccept, models.OrderStatusConfirmed, true},
		{"shop rejects pending", models.OrderStatusPending, ActorShop, ActionReject, models.OrderStatusRejected, true},
		{"shop marks ready", models.OrderStatusConfirmed, ActorShop, ActionMarkReady, models.OrderStatusReady, true},
		{"shop dispatches", models.OrderStatusReady, ActorShop, ActionDispatch, models.OrderStatusOutForDelivery, true},
		{"shop completes", models.OrderStatusOutForDelivery, ActorShop, ActionComplete, models.OrderStatusCompleted, true},
		{"rider picks up", models.OrderStatusReady, ActorRider, ActionPickup, models.OrderStatusOutForDelivery, true},
		{"rider delivers", models.OrderStatusOutForDelivery, ActorRider, ActionDeliver, models.OrderStatusDelivered, true},

		{"rider delivers pending", models.OrderStatusPending, ActorRider, ActionDeliver, "", false},
		{"shop rejects confirmed", models.OrderStatusConfirmed, ActorShop, ActionReject, "", false},
		{"shop cannot deliver", models.OrderStatusOutForDelivery, ActorShop, ActionDeliver, "", false},
		{"rider cannot mark ready", models.OrderStatusConfirmed, ActorRider, ActionMarkReady, "", false},
		{"skip ready", models.OrderStatusConfirmed, ActorShop, ActionDispatch, "", false},
		{"rider cannot accept pending", models.OrderStatusPending, ActorRider, ActionAccept, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.actor, tt.action)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingToDeliveredRejected(t *testing.T) {
	for _, actor := range []Actor{ActorShop, ActorRider} {
		_, err := ActionFor(models.OrderStatusPending, models.OrderStatusDelivered, actor)
		assert.ErrorIs(t, err, ErrIllegalTransition, "actor %s", actor)
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.OrderStatusRejected,
		models.OrderStatusDelivered,
		models.OrderStatusCompleted,
	} {
		require.True(t, status.Terminal())
		for _, actor := range []Actor{ActorShop, ActorRider} {
			assert.Empty(t, Allowed(status, actor), "%s by %s", status, actor)
		}
	}
}

func TestOnlyShopLeavesPending(t *testing.T) {
	assert.Empty(t, Allowed(models.OrderStatusPending, ActorRider))
	assert.ElementsMatch(t, []Action{ActionAccept, ActionReject}, Allowed(models.OrderStatusPending, ActorShop))
	assert.Len(t, transitions, 7)
}

func TestActionFor(t *testing.T) {
	action, err := ActionFor(models.OrderStatusConfirmed, models.OrderStatusReady, ActorShop)
	require.NoError(t, err)
	assert.Equal(t, ActionMarkReady, action)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, models.OrderStatusConfirmed, InitialStatus(models.PaymentMethodCOD, false))
	assert.Equal(t, models.OrderStatusConfirmed, InitialStatus(models.PaymentMethodUPI, false))
	assert.Equal(t, models.OrderStatusPending, InitialStatus(models.PaymentMethodCOD, true))
	assert.Equal(t, models.OrderStatusConfirmed, InitialStatus(models.PaymentMethodCard, true))
}
