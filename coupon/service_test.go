package coupon

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

func TestServiceSave(t *testing.T) {
	svc := NewService(store.NewMemory(models.PricingConfig{}), zaptest.NewLogger(t))
	ctx := context.Background()

	saved, err := svc.Save(ctx, models.Coupon{Code: " diwali ", Type: models.CouponPercent, Discount: decimal.NewFromInt(15), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "DIWALI", saved.Code)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	c, err := Validate("Diwali", list, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "DIWALI", c.Code)
}

func TestServiceSaveValidation(t *testing.T) {
	svc := NewService(store.NewMemory(models.PricingConfig{}), zaptest.NewLogger(t))

	bad := []models.Coupon{
		{Code: "", Type: models.CouponFlat, Discount: decimal.NewFromInt(5)},
		{Code: "X", Type: "Bogus", Discount: decimal.NewFromInt(5)},
		{Code: "X", Type: models.CouponFlat, Discount: decimal.Zero},
		{Code: "X", Type: models.CouponFlat, Discount: decimal.NewFromInt(5), MinOrder: decimal.NewFromInt(-1)},
	}
	for _, c := range bad {
		_, err := svc.Save(context.Background(), c)
		assert.True(t, models.IsValidation(err), "coupon %+v", c)
	}
}
