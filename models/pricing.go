package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PricingConfig is the admin-managed fee configuration. Version increases
// on every write so a checkout can tell which snapshot it priced against.
type PricingConfig struct {
	DeliveryBase    decimal.Decimal `json:"delivery_base"`
	SurgeMultiplier decimal.Decimal `json:"surge_multiplier"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	IsSurgeActive   bool            `json:"is_surge_active"`
	Version         int64           `json:"version"`
}

type CouponType string

const (
	CouponFlat    CouponType = "Flat"
	CouponPercent CouponType = "Percent"
)

type Coupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     CouponType      `json:"type"`
	MinOrder decimal.Decimal `json:"min_order"`
	IsActive bool            `json:"is_active"`
}

// Normalize upper-cases the code; coupon codes match case-insensitively.
func (c Coupon) Normalize() Coupon {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	return c
}
