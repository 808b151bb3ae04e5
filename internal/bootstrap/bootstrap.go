// Package bootstrap seeds default data into a fresh database. Each entity
// type is guarded by an existence check, so running it against a populated
// store is a no-op.
package bootstrap

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ebalkova/ordersys/internal/domain/coupon"
	"github.com/ebalkova/ordersys/internal/domain/product"
	"github.com/ebalkova/ordersys/internal/domain/user"
)

// Seed inserts the default users, products, and coupons for entity types
// whose tables are empty. It has no ordering dependency on request handling
// and may be invoked by the API server at startup or by the seed-db binary.
func Seed(
	ctx context.Context,
	lg *zap.Logger,
	users user.Repository,
	products product.Repository,
	coupons coupon.Repository,
) error {
	if err := seedUsers(ctx, lg, users); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedProducts(ctx, lg, products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, lg, coupons); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedUsers(ctx context.Context, lg *zap.Logger, repo user.Repository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		lg.Debug("Users already present, skipping", zap.Int64("count", n))
		return nil
	}

	defaults := []user.User{
		{Name: "Fatma", Email: "fatma@gmail.com", Password: "123"},
		{Name: "Ahmed", Email: "ahmed@gmail.com", Password: "123"},
	}
	for i := range defaults {
		if err := repo.Create(ctx, &defaults[i]); err != nil {
			return errors.Wrapf(err, "create user %s", defaults[i].Email)
		}
		lg.Info("Seeded user", zap.String("email", defaults[i].Email))
	}
	return nil
}

func seedProducts(ctx context.Context, lg *zap.Logger, repo product.Repository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		lg.Debug("Products already present, skipping", zap.Int64("count", n))
		return nil
	}

	defaults := []product.Product{
		{Name: "Bag", Description: "High-end bag", Price: decimal.NewFromInt(200), Stock: 50},
		{Name: "Smartphone", Description: "Latest smartphone", Price: decimal.NewFromInt(500), Stock: 10},
	}
	for i := range defaults {
		if err := repo.Create(ctx, &defaults[i]); err != nil {
			return errors.Wrapf(err, "create product %s", defaults[i].Name)
		}
		lg.Info("Seeded product", zap.String("name", defaults[i].Name))
	}
	return nil
}

func seedCoupons(ctx context.Context, lg *zap.Logger, repo coupon.Repository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		lg.Debug("Coupons already present, skipping", zap.Int64("count", n))
		return nil
	}

	defaults := []coupon.Coupon{
		{
			Code:               "SUMMER20",
			DiscountPercentage: decimal.NewFromInt(20),
			ExpiryDate:         time.Date(2024, time.July, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			Code:               "WINTER50",
			DiscountPercentage: decimal.NewFromInt(50),
			ExpiryDate:         time.Date(2024, time.December, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	for i := range defaults {
		if err := repo.Create(ctx, &defaults[i]); err != nil {
			return errors.Wrapf(err, "create coupon %s", defaults[i].Code)
		}
		lg.Info("Seeded coupon", zap.String("code", defaults[i].Code))
	}
	return nil
}
