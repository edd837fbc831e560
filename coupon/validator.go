// Package coupon checks promo codes against the active coupon list.
package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

var (
	ErrEmptyCode = errors.New("please enter a code")
	ErrNotFound  = errors.New("invalid coupon code")
	ErrInactive  = errors.New("this coupon is no longer active")
)

type MinimumNotMetError struct {
	Minimum decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum order of ₹%s required", e.Minimum.StringFixed(2))
}

// Validate matches code against coupons case-insensitively after trimming.
// Partial matches never apply.
func Validate(code string, coupons []models.Coupon, cartTotal decimal.Decimal) (*models.Coupon, error) {
	want := strings.ToUpper(strings.TrimSpace(code))
	if want == "" {
		return nil, ErrEmptyCode
	}

	var match *models.Coupon
	for i := range coupons {
		if strings.ToUpper(coupons[i].Code) == want {
			c := coupons[i]
			match = &c
			break
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}
	if !match.IsActive {
		return nil, ErrInactive
	}
	if cartTotal.LessThan(match.MinOrder) {
		return nil, &MinimumNotMetError{Minimum: match.MinOrder}
	}
	return match, nil
}

// IsRejection reports whether err is one of the user-facing coupon rejections.
func IsRejection(err error) bool {
	var minErr *MinimumNotMetError
	return errors.Is(err, ErrEmptyCode) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInactive) || errors.As(err, &minErr)
}
