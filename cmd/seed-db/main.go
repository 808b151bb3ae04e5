// Command seed-db connects to the database, applies the schema, and inserts
// the default users, products, and coupons. The API server performs the same
// seeding at startup; this binary exists for provisioning a database without
// starting the server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ebalkova/ordersys/internal/bootstrap"
	"github.com/ebalkova/ordersys/internal/repository"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL); err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}

	lg.Info("seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string) error {
	lg.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return bootstrap.Seed(ctx, lg,
		repository.NewUserRepository(pool),
		repository.NewProductRepository(pool),
		repository.NewCouponRepository(pool),
	)
}
