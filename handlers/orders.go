package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
	"github.com/37vikanshu-dot/Mini-Drop/tracking"
)

// OrderHandler serves a customer's own orders.
type OrderHandler struct {
	orders store.OrderRepository
	hub    *tracking.Hub
	logger *zap.Logger
}

func NewOrderHandler(orders store.OrderRepository, hub *tracking.Hub, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, hub: hub, logger: logger}
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), store.OrderFilter{UserID: id})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ownOrder loads the order in the path, reporting someone else's order as
// not found.
func (h *OrderHandler) ownOrder(c *gin.Context, customer string) (models.Order, bool) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err == nil && order.UserID != customer {
		err = models.ErrNotFound
	}
	if err != nil {
		respondError(c, h.logger, err)
		return models.Order{}, false
	}
	return order, true
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	order, ok := h.ownOrder(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// TrackOrder upgrades to a websocket that receives a frame per status
// change. Browsers cannot set headers on websocket requests, so the guest
// session may also come from the session_id query parameter.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	if c.GetHeader(middleware.SessionIDHeader) == "" && c.Query("session_id") != "" {
		c.Request.Header.Set(middleware.SessionIDHeader, c.Query("session_id"))
	}
	id, ok := customerID(c)
	if !ok {
		return
	}
	order, ok := h.ownOrder(c, id)
	if !ok {
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, tracking.Snapshot(order)); err != nil {
		h.logger.Warn("Tracking upgrade failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}
