package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/catalog"
)

// CatalogHandler serves the customer catalogue. Reads never fail: a broken
// backend shows up as empty lists.
type CatalogHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) GetShops(c *gin.Context) {
	featured, _ := strconv.ParseBool(c.Query("featured"))
	shops := h.catalog.Shops(c.Request.Context(), catalog.ShopFilter{
		CategorySlug: c.Query("category"),
		FeaturedOnly: featured,
	})
	c.JSON(http.StatusOK, shops)
}

func (h *CatalogHandler) GetShop(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	shop, err := h.catalog.Shop(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *CatalogHandler) GetShopProducts(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.catalog.Products(c.Request.Context(), id))
}

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Products(c.Request.Context(), 0))
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Categories(c.Request.Context()))
}

// intParam parses a positive integer path parameter, answering 400 when it
// is not one.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}
