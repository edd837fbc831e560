package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := InitRedis(Config{Addr: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	_ = rdb.Close()
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewCatalogCache(rdb, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	_, ok := c.Products(ctx)
	assert.False(t, ok)

	c.SetProducts(ctx, []models.Product{{ID: 1, ShopID: 1, Name: "Milk", Price: decimal.RequireFromString("32.50")}})
	got, ok := c.Products(ctx)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("32.5")))

	c.SetShops(ctx, []models.Shop{{ID: 1, Name: "Fresh Mart"}})
	c.SetCategories(ctx, []models.Category{{ID: 1, Slug: "grocery"}})
	assert.True(t, mr.Exists(shopsKey))

	c.Invalidate(ctx)
	_, ok = c.Shops(ctx)
	assert.False(t, ok)
	_, ok = c.Categories(ctx)
	assert.False(t, ok)
}

func TestCatalogCacheExpires(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewCatalogCache(rdb, 30*time.Second, zaptest.NewLogger(t))
	ctx := context.Background()

	c.SetShops(ctx, []models.Shop{{ID: 1}})
	mr.FastForward(31 * time.Second)

	_, ok := c.Shops(ctx)
	assert.False(t, ok)
}

func TestCartSessions(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewCartSessions(rdb, time.Hour)
	ctx := context.Background()

	sess, err := s.Load(ctx, "guest-1")
	require.NoError(t, err)
	assert.True(t, sess.Cart.Empty())

	sess.Cart.Add("1")
	sess.Cart.Add("1")
	sess.Coupon = &models.Coupon{Code: "WELCOME50", Type: models.CouponFlat, Discount: decimal.NewFromInt(50)}
	require.NoError(t, s.Save(ctx, sess))
	assert.True(t, mr.Exists("cart:guest-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:guest-1"))

	loaded, err := s.Load(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Cart.Quantity("1"))
	require.NotNil(t, loaded.Coupon)
	assert.Equal(t, "WELCOME50", loaded.Coupon.Code)

	require.NoError(t, s.Delete(ctx, "guest-1"))
	assert.False(t, mr.Exists("cart:guest-1"))
}
