package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/payout"
)

// ShopHandler is the shop owner's dashboard. Every route acts on the shop
// named in the caller's token.
type ShopHandler struct {
	flow    *orderflow.Service
	payouts *payout.Service
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewShopHandler(flow *orderflow.Service, payouts *payout.Service, catalog *catalog.Service, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{flow: flow, payouts: payouts, catalog: catalog, logger: logger}
}

func shopID(c *gin.Context) (int, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok || claims.ShopID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token is not linked to a shop"})
		return 0, false
	}
	return claims.ShopID, true
}

func (h *ShopHandler) GetOrders(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	board, err := h.flow.Board(c.Request.Context(), shop)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// updateStatusRequest names either the action to take or the status to
// move to.
type updateStatusRequest struct {
	Action string             `json:"action"`
	Status models.OrderStatus `json:"status"`
}

func (h *ShopHandler) UpdateOrderStatus(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		order models.Order
		err   error
	)
	switch {
	case req.Action != "":
		order, err = h.flow.Apply(c.Request.Context(), shop, c.Param("id"), orderflow.Action(req.Action))
	case req.Status != "":
		order, err = h.flow.MoveTo(c.Request.Context(), shop, c.Param("id"), req.Status)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action or status is required"})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ShopHandler) GetPayouts(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	summary, err := h.payouts.ForShop(c.Request.Context(), shop)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ShopHandler) GetProducts(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	products, err := h.catalog.ShopProducts(c.Request.Context(), shop)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ShopHandler) CreateProduct(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), shop, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ShopHandler) UpdateProduct(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), shop, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ShopHandler) ToggleStock(c *gin.Context) {
	shop, ok := shopID(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.ToggleStock(c.Request.Context(), shop, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
