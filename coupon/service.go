package coupon

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// Service is the admin side of coupons.
type Service struct {
	repo   store.CouponRepository
	logger *zap.Logger
}

func NewService(repo store.CouponRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.ListCoupons(ctx)
}

// Save creates or replaces a coupon keyed by its upper-cased code.
func (s *Service) Save(ctx context.Context, c models.Coupon) (models.Coupon, error) {
	c = c.Normalize()
	switch {
	case c.Code == "":
		return models.Coupon{}, models.NewValidationError("code", "is required")
	case c.Type != models.CouponFlat && c.Type != models.CouponPercent:
		return models.Coupon{}, models.NewValidationError("type", "must be Flat or Percent")
	case !c.Discount.IsPositive():
		return models.Coupon{}, models.NewValidationError("discount", "must be positive")
	case c.MinOrder.IsNegative():
		return models.Coupon{}, models.NewValidationError("min_order", "must not be negative")
	}
	if err := s.repo.SaveCoupon(ctx, c); err != nil {
		return models.Coupon{}, fmt.Errorf("save coupon: %w", err)
	}
	s.logger.Info("Coupon saved",
		zap.String("code", c.Code),
		zap.String("type", string(c.Type)),
		zap.String("discount", c.Discount.String()),
		zap.Bool("active", c.IsActive),
	)
	return c, nil
}
