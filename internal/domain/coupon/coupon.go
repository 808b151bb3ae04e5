package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a coupon code does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when a coupon is past its expiry date.
	ErrExpired = errors.New("coupon expired")
	// ErrDuplicateCode is returned when creating a coupon whose code is taken.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is a percentage discount identified by a unique code.
type Coupon struct {
	Code               string
	DiscountPercentage decimal.Decimal
	ExpiryDate         time.Time
}

// Expired reports whether the coupon is no longer valid at the given time.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiryDate.Before(now)
}

// Repository defines persistence operations for coupons.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Count(ctx context.Context) (int64, error)
}
