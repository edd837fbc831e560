package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
	"github.com/37vikanshu-dot/Mini-Drop/rider"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

type AdminHandler struct {
	pricing *pricing.Service
	coupons *coupon.Service
	riders  *rider.Service
	catalog *catalog.Service
	orders  store.OrderRepository
	logger  *zap.Logger
}

func NewAdminHandler(
	pricingSvc *pricing.Service,
	coupons *coupon.Service,
	riders *rider.Service,
	catalog *catalog.Service,
	orders store.OrderRepository,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		pricing: pricingSvc,
		coupons: coupons,
		riders:  riders,
		catalog: catalog,
		orders:  orders,
		logger:  logger,
	}
}

func (h *AdminHandler) GetPricing(c *gin.Context) {
	cfg, err := h.pricing.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *AdminHandler) UpdatePricing(c *gin.Context) {
	var cfg models.PricingConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.pricing.Update(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *AdminHandler) GetCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

func (h *AdminHandler) SaveCoupon(c *gin.Context) {
	var in models.Coupon
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.coupons.Save(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *AdminHandler) GetRiders(c *gin.Context) {
	riders, err := h.riders.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, riders)
}

func (h *AdminHandler) CreateRider(c *gin.Context) {
	var in models.RiderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.riders.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *AdminHandler) CreateShop(c *gin.Context) {
	var in models.ShopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shop, err := h.catalog.CreateShop(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, shop)
}

type updateShopRequest struct {
	models.ShopInput
	IsActive *bool `json:"is_active"`
}

func (h *AdminHandler) UpdateShop(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req updateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shop, err := h.catalog.UpdateShop(c.Request.Context(), id, req.ShopInput, req.IsActive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *AdminHandler) DeleteShop(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteShop(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOrders lists every order, optionally filtered by ?status= and ?shop_id=.
func (h *AdminHandler) GetOrders(c *gin.Context) {
	filter := store.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if raw := c.Query("shop_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop_id"})
			return
		}
		filter.ShopID = id
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
