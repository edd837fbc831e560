package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// Service is the injected replacement for a process-wide pricing singleton.
// Readers take one Snapshot per computation; writes are last-write-wins.
type Service struct {
	store  store.PricingStore
	logger *zap.Logger
}

func NewService(s store.PricingStore, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

func (s *Service) Snapshot(ctx context.Context) (models.PricingConfig, error) {
	cfg, err := s.store.PricingConfig(ctx)
	if err != nil {
		return models.PricingConfig{}, fmt.Errorf("read pricing config: %w", err)
	}
	return cfg, nil
}

func (s *Service) Update(ctx context.Context, cfg models.PricingConfig) (models.PricingConfig, error) {
	if err := validateConfig(cfg); err != nil {
		return models.PricingConfig{}, err
	}
	saved, err := s.store.SavePricingConfig(ctx, cfg)
	if err != nil {
		return models.PricingConfig{}, fmt.Errorf("save pricing config: %w", err)
	}
	s.logger.Info("Pricing config updated",
		zap.Int64("version", saved.Version),
		zap.String("delivery_base", saved.DeliveryBase.String()),
		zap.String("surge_multiplier", saved.SurgeMultiplier.String()),
		zap.Bool("surge_active", saved.IsSurgeActive),
		zap.String("platform_fee", saved.PlatformFee.String()),
		zap.String("gst_percent", saved.GSTPercent.String()),
	)
	return saved, nil
}

// Quote reads the config once and prices the cart against it.
func (s *Service) Quote(ctx context.Context, cart map[string]int, catalog models.ProductIndex, coupon *models.Coupon) (Breakdown, error) {
	cfg, err := s.Snapshot(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return Calculate(cart, catalog, cfg, coupon), nil
}

func validateConfig(cfg models.PricingConfig) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"delivery_base", cfg.DeliveryBase},
		{"surge_multiplier", cfg.SurgeMultiplier},
		{"platform_fee", cfg.PlatformFee},
		{"gst_percent", cfg.GSTPercent},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return models.NewValidationError(f.name, "must not be negative")
		}
	}
	return nil
}

// DefaultConfig is used when no config has been saved yet.
func DefaultConfig() models.PricingConfig {
	return models.PricingConfig{
		DeliveryBase:    decimal.NewFromInt(15),
		SurgeMultiplier: decimal.NewFromFloat(1.5),
		PlatformFee:     decimal.NewFromInt(5),
		GSTPercent:      decimal.NewFromInt(5),
		Version:         1,
	}
}
