package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/checkout"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
)

type CheckoutHandler struct {
	engine *checkout.Engine
	logger *zap.Logger
}

func NewCheckoutHandler(engine *checkout.Engine, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{engine: engine, logger: logger}
}

// customerID is who orders are placed for: the token subject, or the guest
// session id.
func customerID(c *gin.Context) (string, bool) {
	id := middleware.SessionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A customer token or " + middleware.SessionIDHeader + " header is required"})
		return "", false
	}
	return id, true
}

func (h *CheckoutHandler) respondResult(c *gin.Context, result checkout.Result) {
	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.StringSlice("order.ids", result.OrderIDs),
		attribute.Bool("checkout.partial", result.Partial()),
	)
	c.JSON(http.StatusCreated, result)
}

// PlaceOrder checks out a cash-on-delivery cart.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, ok := customerID(c)
	if !ok {
		return
	}
	req.UserID = id

	result, err := h.engine.PlaceOrder(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondResult(c, result)
}

func (h *CheckoutHandler) StartPayment(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, ok := customerID(c)
	if !ok {
		return
	}
	req.UserID = id

	intent, err := h.engine.StartPayment(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *CheckoutHandler) ConfirmPayment(c *gin.Context) {
	var req checkout.Confirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, ok := customerID(c)
	if !ok {
		return
	}

	result, err := h.engine.ConfirmPayment(c.Request.Context(), id, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondResult(c, result)
}

func (h *CheckoutHandler) PaymentFailed(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	if err := h.engine.PaymentFailed(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "payment cancelled"})
}
