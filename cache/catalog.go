package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

const (
	shopsKey      = "catalog:shops"
	productsKey   = "catalog:products"
	categoriesKey = "catalog:categories"
)

// CatalogCache keeps whole-catalog snapshots in Redis. Misses and Redis
// errors both report ok=false; the caller falls through to the store.
type CatalogCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CatalogCache) Shops(ctx context.Context) ([]models.Shop, bool) {
	var shops []models.Shop
	ok := c.get(ctx, shopsKey, &shops)
	return shops, ok
}

func (c *CatalogCache) SetShops(ctx context.Context, shops []models.Shop) {
	c.set(ctx, shopsKey, shops)
}

func (c *CatalogCache) Products(ctx context.Context) ([]models.Product, bool) {
	var products []models.Product
	ok := c.get(ctx, productsKey, &products)
	return products, ok
}

func (c *CatalogCache) SetProducts(ctx context.Context, products []models.Product) {
	c.set(ctx, productsKey, products)
}

func (c *CatalogCache) Categories(ctx context.Context) ([]models.Category, bool) {
	var categories []models.Category
	ok := c.get(ctx, categoriesKey, &categories)
	return categories, ok
}

func (c *CatalogCache) SetCategories(ctx context.Context, categories []models.Category) {
	c.set(ctx, categoriesKey, categories)
}

// Invalidate drops every catalog snapshot.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, shopsKey, productsKey, categoriesKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
