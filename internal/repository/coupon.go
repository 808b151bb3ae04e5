package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/coupon"
)

const (
	createCouponSQL = `INSERT INTO coupons (code, discount_percentage, expiry_date)
		VALUES ($1, $2, $3)`

	findCouponByCodeSQL = `SELECT code, discount_percentage, expiry_date
		FROM coupons WHERE code = $1`

	countCouponsSQL = `SELECT COUNT(*) FROM coupons`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create persists a new coupon. Returns coupon.ErrDuplicateCode when the
// code is already taken; the table is left unchanged in that case.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := from(ctx, r.pool).Exec(ctx, createCouponSQL,
		c.Code, c.DiscountPercentage, c.ExpiryDate,
	)
	if err != nil {
		if uniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// FindByCode looks up a coupon by its code, or coupon.ErrNotFound.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var (
		c   coupon.Coupon
		pct decimal.Decimal
	)
	err := from(ctx, r.pool).QueryRow(ctx, findCouponByCodeSQL, code).Scan(
		&c.Code, &pct, &c.ExpiryDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	c.DiscountPercentage = pct
	return &c, nil
}

// Count returns the number of coupons.
func (r *CouponRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := from(ctx, r.pool).QueryRow(ctx, countCouponsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting coupons: %w", err)
	}
	return n, nil
}
