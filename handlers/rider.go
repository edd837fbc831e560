package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/rider"
)

type RiderHandler struct {
	riders *rider.Service
	logger *zap.Logger
}

func NewRiderHandler(riders *rider.Service, logger *zap.Logger) *RiderHandler {
	return &RiderHandler{riders: riders, logger: logger}
}

func riderID(c *gin.Context) (string, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok || claims.RiderID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token is not linked to a rider"})
		return "", false
	}
	return claims.RiderID, true
}

func (h *RiderHandler) GetProfile(c *gin.Context) {
	id, ok := riderID(c)
	if !ok {
		return
	}
	profile, err := h.riders.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type riderStatusRequest struct {
	Status models.RiderStatus `json:"status" binding:"required"`
}

func (h *RiderHandler) SetStatus(c *gin.Context) {
	id, ok := riderID(c)
	if !ok {
		return
	}
	var req riderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.riders.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *RiderHandler) GetAvailable(c *gin.Context) {
	if _, ok := riderID(c); !ok {
		return
	}
	orders, err := h.riders.Available(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrders returns the rider's current deliveries and their history.
func (h *RiderHandler) GetOrders(c *gin.Context) {
	id, ok := riderID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	assigned, err := h.riders.Assigned(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	history, err := h.riders.History(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned, "history": history})
}

func (h *RiderHandler) Accept(c *gin.Context) {
	id, ok := riderID(c)
	if !ok {
		return
	}
	order, err := h.riders.Accept(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *RiderHandler) Deliver(c *gin.Context) {
	id, ok := riderID(c)
	if !ok {
		return
	}
	order, err := h.riders.Deliver(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
