package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebalkova/ordersys/internal/domain/coupon"
	"github.com/ebalkova/ordersys/internal/domain/product"
	"github.com/ebalkova/ordersys/internal/domain/user"
)

type stubUserRepo struct {
	existing int64
	created  []user.User
}

func (s *stubUserRepo) Create(_ context.Context, u *user.User) error {
	s.created = append(s.created, *u)
	return nil
}

func (s *stubUserRepo) GetByID(context.Context, int64) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) Count(context.Context) (int64, error) {
	return s.existing, nil
}

type stubProductRepo struct {
	existing int64
	created  []product.Product
}

func (s *stubProductRepo) Create(_ context.Context, p *product.Product) error {
	s.created = append(s.created, *p)
	return nil
}

func (s *stubProductRepo) GetByID(context.Context, int64) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (s *stubProductRepo) List(context.Context) ([]product.Product, error) { return nil, nil }

func (s *stubProductRepo) Count(context.Context) (int64, error) {
	return s.existing, nil
}

func (s *stubProductRepo) DecrementStock(context.Context, int64, int) error { return nil }

type stubCouponRepo struct {
	existing int64
	created  []coupon.Coupon
}

func (s *stubCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	s.created = append(s.created, *c)
	return nil
}

func (s *stubCouponRepo) FindByCode(context.Context, string) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}

func (s *stubCouponRepo) Count(context.Context) (int64, error) {
	return s.existing, nil
}

func TestSeed_EmptyDatabase(t *testing.T) {
	users := &stubUserRepo{}
	products := &stubProductRepo{}
	coupons := &stubCouponRepo{}

	require.NoError(t, Seed(context.Background(), zap.NewNop(), users, products, coupons))

	require.Len(t, users.created, 2)
	assert.Equal(t, "fatma@gmail.com", users.created[0].Email)
	assert.Equal(t, "ahmed@gmail.com", users.created[1].Email)

	require.Len(t, products.created, 2)
	assert.Equal(t, "Bag", products.created[0].Name)
	assert.Equal(t, 50, products.created[0].Stock)
	assert.Equal(t, "Smartphone", products.created[1].Name)

	require.Len(t, coupons.created, 2)
	assert.Equal(t, "SUMMER20", coupons.created[0].Code)
	assert.Equal(t, "WINTER50", coupons.created[1].Code)
}

func TestSeed_SkipsPopulatedTables(t *testing.T) {
	users := &stubUserRepo{existing: 2}
	products := &stubProductRepo{}
	coupons := &stubCouponRepo{existing: 5}

	require.NoError(t, Seed(context.Background(), zap.NewNop(), users, products, coupons))

	assert.Empty(t, users.created)
	assert.Empty(t, coupons.created)
	// Each entity type is guarded independently.
	assert.Len(t, products.created, 2)
}
