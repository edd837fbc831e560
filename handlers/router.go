package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/cart"
	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/checkout"
	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/payout"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
	"github.com/37vikanshu-dot/Mini-Drop/rider"
	"github.com/37vikanshu-dot/Mini-Drop/store"
	"github.com/37vikanshu-dot/Mini-Drop/tracking"
)

// Dependencies is everything the HTTP surface is built from.
type Dependencies struct {
	ServiceName string
	Auth        *middleware.Authenticator
	Catalog     *catalog.Service
	Sessions    cart.SessionStore
	Coupons     *coupon.Service
	Checkout    *checkout.Engine
	Orders      store.OrderRepository
	OrderFlow   *orderflow.Service
	Riders      *rider.Service
	Payouts     *payout.Service
	Pricing     *pricing.Service
	Hub         *tracking.Hub
	Checks      map[string]Check
	Logger      *zap.Logger
}

func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware(d.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(d.Logger))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", NewHealthHandler(d.ServiceName, d.Checks).HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())

	catalogHandler := NewCatalogHandler(d.Catalog, d.Logger)
	cartHandler := NewCartHandler(d.Sessions, d.Catalog, d.Coupons, d.Checkout, d.Logger)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.Logger)
	orderHandler := NewOrderHandler(d.Orders, d.Hub, d.Logger)

	customer := router.Group("/", d.Auth.OptionalAuth())
	customer.GET("/shops", catalogHandler.GetShops)
	customer.GET("/shops/:id", catalogHandler.GetShop)
	customer.GET("/shops/:id/products", catalogHandler.GetShopProducts)
	customer.GET("/products", catalogHandler.GetProducts)
	customer.GET("/categories", catalogHandler.GetCategories)

	customer.GET("/cart", cartHandler.GetCart)
	customer.POST("/cart/items/:productId", cartHandler.AddItem)
	customer.DELETE("/cart/items/:productId", cartHandler.RemoveItem)
	customer.POST("/cart/coupon", cartHandler.ApplyCoupon)
	customer.DELETE("/cart/coupon", cartHandler.RemoveCoupon)

	customer.POST("/checkout", checkoutHandler.PlaceOrder)
	customer.POST("/checkout/payment", checkoutHandler.StartPayment)
	customer.POST("/checkout/payment/verify", checkoutHandler.ConfirmPayment)
	customer.POST("/checkout/payment/failed", checkoutHandler.PaymentFailed)

	customer.GET("/orders", orderHandler.GetOrders)
	customer.GET("/orders/:id", orderHandler.GetOrder)
	customer.GET("/orders/:id/track", orderHandler.TrackOrder)

	shopHandler := NewShopHandler(d.OrderFlow, d.Payouts, d.Catalog, d.Logger)
	shop := router.Group("/shop", d.Auth.RequireRole(middleware.RoleShopOwner))
	shop.GET("/orders", shopHandler.GetOrders)
	shop.POST("/orders/:id/status", shopHandler.UpdateOrderStatus)
	shop.GET("/payouts", shopHandler.GetPayouts)
	shop.GET("/products", shopHandler.GetProducts)
	shop.POST("/products", shopHandler.CreateProduct)
	shop.PUT("/products/:id", shopHandler.UpdateProduct)
	shop.POST("/products/:id/stock", shopHandler.ToggleStock)

	riderHandler := NewRiderHandler(d.Riders, d.Logger)
	riders := router.Group("/rider", d.Auth.RequireRole(middleware.RoleRider))
	riders.GET("/me", riderHandler.GetProfile)
	riders.POST("/status", riderHandler.SetStatus)
	riders.GET("/orders/available", riderHandler.GetAvailable)
	riders.GET("/orders", riderHandler.GetOrders)
	riders.POST("/orders/:id/accept", riderHandler.Accept)
	riders.POST("/orders/:id/deliver", riderHandler.Deliver)

	adminHandler := NewAdminHandler(d.Pricing, d.Coupons, d.Riders, d.Catalog, d.Orders, d.Logger)
	admin := router.Group("/admin", d.Auth.RequireRole(middleware.RoleAdmin))
	admin.GET("/pricing", adminHandler.GetPricing)
	admin.PUT("/pricing", adminHandler.UpdatePricing)
	admin.GET("/coupons", adminHandler.GetCoupons)
	admin.POST("/coupons", adminHandler.SaveCoupon)
	admin.GET("/riders", adminHandler.GetRiders)
	admin.POST("/riders", adminHandler.CreateRider)
	admin.POST("/shops", adminHandler.CreateShop)
	admin.PUT("/shops/:id", adminHandler.UpdateShop)
	admin.DELETE("/shops/:id", adminHandler.DeleteShop)
	admin.GET("/orders", adminHandler.GetOrders)

	return router
}
