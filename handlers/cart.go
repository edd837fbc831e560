package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/cart"
	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/checkout"
	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
)

type CartHandler struct {
	sessions cart.SessionStore
	catalog  *catalog.Service
	coupons  *coupon.Service
	engine   *checkout.Engine
	logger   *zap.Logger
}

func NewCartHandler(sessions cart.SessionStore, catalog *catalog.Service, coupons *coupon.Service, engine *checkout.Engine, logger *zap.Logger) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog, coupons: coupons, engine: engine, logger: logger}
}

type cartView struct {
	Items       []models.OrderItem `json:"items"`
	Count       int                `json:"count"`
	Breakdown   pricing.Breakdown  `json:"breakdown"`
	Coupon      *models.Coupon     `json:"coupon"`
	CouponError string             `json:"coupon_error,omitempty"`
	Processing  bool               `json:"processing"`
}

// session loads the caller's session, answering 400 when the request
// carries no session identity.
func (h *CartHandler) session(c *gin.Context) (*cart.Session, bool) {
	id := middleware.SessionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A customer token or " + middleware.SessionIDHeader + " header is required"})
		return nil, false
	}
	sess, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return sess, true
}

// editableSession is session for requests that change the cart or coupon.
// The cart is frozen while a payment is in flight.
func (h *CartHandler) editableSession(c *gin.Context) (*cart.Session, bool) {
	sess, ok := h.session(c)
	if !ok {
		return nil, false
	}
	if err := sess.Editable(); err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return sess, true
}

func (h *CartHandler) view(c *gin.Context, sess *cart.Session) {
	ctx := c.Request.Context()
	breakdown, err := h.engine.Quote(ctx, sess)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	items := slices.Collect(sess.Cart.Details(h.catalog.Index(ctx)))
	if items == nil {
		items = []models.OrderItem{}
	}
	c.JSON(http.StatusOK, cartView{
		Items:       items,
		Count:       sess.Cart.Count(),
		Breakdown:   breakdown,
		Coupon:      sess.Coupon,
		CouponError: sess.CouponError,
		Processing:  sess.Processing(),
	})
}

func (h *CartHandler) save(c *gin.Context, sess *cart.Session) bool {
	if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
		respondError(c, h.logger, err)
		return false
	}
	return true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.view(c, sess)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	sess, ok := h.editableSession(c)
	if !ok {
		return
	}
	key := c.Param("productId")
	if _, found := h.catalog.Index(c.Request.Context()).Lookup(key); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not available"})
		return
	}
	sess.Cart.Add(key)
	if !h.save(c, sess) {
		return
	}
	h.view(c, sess)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	sess, ok := h.editableSession(c)
	if !ok {
		return
	}
	sess.Cart.Remove(c.Param("productId"))
	if !h.save(c, sess) {
		return
	}
	h.view(c, sess)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon validates against the current cart subtotal. A rejected code
// is remembered on the session so the cart can show it, and any coupon
// applied earlier stays.
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, ok := h.editableSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	coupons, err := h.coupons.List(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	total := pricing.CartTotal(sess.Cart.Items(), h.catalog.Index(ctx))
	applyErr := sess.ApplyCoupon(req.Code, coupons, total)
	if !h.save(c, sess) {
		return
	}
	if applyErr != nil {
		respondError(c, h.logger, applyErr)
		return
	}
	h.view(c, sess)
}

func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	sess, ok := h.editableSession(c)
	if !ok {
		return
	}
	sess.RemoveCoupon()
	if !h.save(c, sess) {
		return
	}
	h.view(c, sess)
}
