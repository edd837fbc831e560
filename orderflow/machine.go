// Package orderflow owns the order status state machine. Every status change
// in the system is looked up in one transition table keyed by the current
// status, the acting party and the action; anything not in the table is
// rejected.
package orderflow

import (
	"errors"
	"fmt"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

type Actor string

const (
	ActorShop  Actor = "shop"
	ActorRider Actor = "rider"
)

type Action string

const (
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
	ActionMarkReady Action = "mark_ready"
	ActionDispatch  Action = "dispatch"
	ActionComplete  Action = "complete"
	ActionPickup    Action = "pickup"
	ActionDeliver   Action = "deliver"
)

var ErrIllegalTransition = errors.New("illegal order transition")

type key struct {
	from   models.OrderStatus
	actor  Actor
	action Action
}

var transitions = map[key]models.OrderStatus{
	{models.OrderStatusPending, ActorShop, ActionAccept}:          models.OrderStatusConfirmed,
	{models.OrderStatusPending, ActorShop, ActionReject}:          models.OrderStatusRejected,
	{models.OrderStatusConfirmed, ActorShop, ActionMarkReady}:     models.OrderStatusReady,
	{models.OrderStatusReady, ActorShop, ActionDispatch}:          models.OrderStatusOutForDelivery,
	{models.OrderStatusOutForDelivery, ActorShop, ActionComplete}: models.OrderStatusCompleted,
	{models.OrderStatusReady, ActorRider, ActionPickup}:           models.OrderStatusOutForDelivery,
	{models.OrderStatusOutForDelivery, ActorRider, ActionDeliver}: models.OrderStatusDelivered,
}

// Next returns the status reached by actor performing action on an order at
// from.
func Next(from models.OrderStatus, actor Actor, action Action) (models.OrderStatus, error) {
	to, ok := transitions[key{from, actor, action}]
	if !ok {
		return "", fmt.Errorf("%s cannot %s an order that is %s: %w", actor, action, from, ErrIllegalTransition)
	}
	return to, nil
}

// ActionFor finds the action that takes actor from one status to another.
// Callers that only know the target status use it to go through the table.
func ActionFor(from, to models.OrderStatus, actor Actor) (Action, error) {
	for k, next := range transitions {
		if k.from == from && k.actor == actor && next == to {
			return k.action, nil
		}
	}
	return "", fmt.Errorf("%s cannot move an order from %s to %s: %w", actor, from, to, ErrIllegalTransition)
}

// Allowed lists the actions actor may take at status.
func Allowed(status models.OrderStatus, actor Actor) []Action {
	var actions []Action
	for k := range transitions {
		if k.from == status && k.actor == actor {
			actions = append(actions, k.action)
		}
	}
	return actions
}

// InitialStatus is the status a freshly placed order starts in. Orders start
// Confirmed unless codPending is set, in which case cash-on-delivery orders
// wait for the shop to accept them. Paid orders are only written after the
// payment clears, so they never start Pending.
func InitialStatus(paymentMethod string, codPending bool) models.OrderStatus {
	if codPending && paymentMethod == models.PaymentMethodCOD {
		return models.OrderStatusPending
	}
	return models.OrderStatusConfirmed
}
