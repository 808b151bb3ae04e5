package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebalkova/ordersys/internal/domain/cart"
	"github.com/ebalkova/ordersys/internal/domain/coupon"
	"github.com/ebalkova/ordersys/internal/domain/product"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeCartRepo struct {
	carts   map[int64]*cart.Cart // keyed by user ID
	cleared []int64
}

func (f *fakeCartRepo) GetByUserID(_ context.Context, userID int64) (*cart.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (f *fakeCartRepo) Create(context.Context, int64) (*cart.Cart, error) {
	return nil, errors.New("unexpected Create")
}

func (f *fakeCartRepo) AddItemQuantity(context.Context, int64, int64, int) error {
	return errors.New("unexpected AddItemQuantity")
}

func (f *fakeCartRepo) SetItemQuantity(context.Context, int64, int64, int) error {
	return errors.New("unexpected SetItemQuantity")
}

func (f *fakeCartRepo) RemoveItem(context.Context, int64, int64) (*cart.Item, error) {
	return nil, errors.New("unexpected RemoveItem")
}

func (f *fakeCartRepo) Clear(_ context.Context, cartID int64) error {
	f.cleared = append(f.cleared, cartID)
	for _, c := range f.carts {
		if c.ID == cartID {
			c.Items = nil
		}
	}
	return nil
}

func (f *fakeCartRepo) SetTotal(context.Context, int64, decimal.Decimal) error {
	return nil
}

type fakeProductRepo struct {
	products map[int64]*product.Product
}

func (f *fakeProductRepo) Create(context.Context, *product.Product) error {
	return errors.New("unexpected Create")
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) List(context.Context) ([]product.Product, error) {
	return nil, errors.New("unexpected List")
}

func (f *fakeProductRepo) Count(context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id int64, quantity int) error {
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return &product.OutOfStockError{ProductID: id}
	}
	p.Stock -= quantity
	return nil
}

type totalUpdate struct {
	total  decimal.Decimal
	coupon string
}

type fakeOrderRepo struct {
	orders  map[int64]*Order
	nextID  int64
	updates []totalUpdate
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*Order), nextID: 1}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *Order) error {
	o.ID = f.nextID
	f.nextID++
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	var out []Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) UpdateTotalAndCoupon(_ context.Context, id int64, total decimal.Decimal, couponCode string) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.TotalAmount = total
	o.CouponCode = couponCode
	f.updates = append(f.updates, totalUpdate{total: total, coupon: couponCode})
	return nil
}

type fakeCouponRepo struct {
	coupons map[string]*coupon.Coupon
}

func (f *fakeCouponRepo) Create(context.Context, *coupon.Coupon) error {
	return errors.New("unexpected Create")
}

func (f *fakeCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) Count(context.Context) (int64, error) {
	return int64(len(f.coupons)), nil
}

func newTestService() (*Service, *fakeCartRepo, *fakeProductRepo, *fakeOrderRepo, *fakeCouponRepo, *fakeTx) {
	carts := &fakeCartRepo{carts: make(map[int64]*cart.Cart)}
	products := &fakeProductRepo{products: make(map[int64]*product.Product)}
	orders := newFakeOrderRepo()
	coupons := &fakeCouponRepo{coupons: make(map[string]*coupon.Coupon)}
	tx := &fakeTx{}

	svc := NewService(carts, products, orders, coupons, tx)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, carts, products, orders, coupons, tx
}

func TestCheckout(t *testing.T) {
	svc, carts, products, orders, _, tx := newTestService()

	products.products[1] = &product.Product{ID: 1, Name: "Bag", Price: decimal.NewFromInt(200), Stock: 50}
	products.products[2] = &product.Product{ID: 2, Name: "Smartphone", Price: decimal.NewFromInt(500), Stock: 10}
	carts.carts[7] = &cart.Cart{
		ID:     3,
		UserID: 7,
		// Stored cart prices are stale on purpose; checkout must price from
		// the live catalog.
		TotalAmount: decimal.NewFromInt(1),
		Items: []cart.Item{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		},
	}

	o, err := svc.Checkout(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(900).Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.Equal(t, svc.now(), o.OrderDate)
	assert.Len(t, o.Items, 2)

	// Stock decremented, cart emptied, everything inside one transaction.
	assert.Equal(t, 48, products.products[1].Stock)
	assert.Equal(t, 9, products.products[2].Stock)
	assert.Equal(t, []int64{3}, carts.cleared)
	assert.Equal(t, 1, tx.calls)

	stored, err := orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.UserID)
}

func TestCheckout_NoCart(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), 42)
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, carts, _, _, _, _ := newTestService()
	carts.carts[7] = &cart.Cart{ID: 3, UserID: 7}

	_, err := svc.Checkout(context.Background(), 7)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_ProductGone(t *testing.T) {
	svc, carts, _, orders, _, _ := newTestService()
	carts.carts[7] = &cart.Cart{
		ID:     3,
		UserID: 7,
		Items:  []cart.Item{{ProductID: 99, Quantity: 1}},
	}

	_, err := svc.Checkout(context.Background(), 7)

	var oos *product.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, int64(99), oos.ProductID)
	assert.Empty(t, orders.orders)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	svc, carts, products, orders, _, _ := newTestService()
	products.products[2] = &product.Product{ID: 2, Price: decimal.NewFromInt(500), Stock: 1}
	carts.carts[7] = &cart.Cart{
		ID:     3,
		UserID: 7,
		Items:  []cart.Item{{ProductID: 2, Quantity: 5}},
	}

	_, err := svc.Checkout(context.Background(), 7)

	var oos *product.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, int64(2), oos.ProductID)
	assert.Empty(t, orders.orders)
	assert.Equal(t, 1, products.products[2].Stock)
}

func seedOrder(orders *fakeOrderRepo, total int64, couponCode string) *Order {
	o := &Order{
		UserID:      7,
		Status:      StatusPending,
		TotalAmount: decimal.NewFromInt(total),
		CouponCode:  couponCode,
	}
	_ = orders.Create(context.Background(), o)
	return o
}

func TestApplyCoupon(t *testing.T) {
	svc, _, _, orders, coupons, _ := newTestService()
	coupons.coupons["SUMMER20"] = &coupon.Coupon{
		Code:               "SUMMER20",
		DiscountPercentage: decimal.NewFromInt(20),
		ExpiryDate:         time.Date(2030, 7, 7, 0, 0, 0, 0, time.UTC),
	}
	o := seedOrder(orders, 100, "")

	got, err := svc.ApplyCoupon(context.Background(), o.ID, "SUMMER20")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(80).Equal(got.TotalAmount), "total %s", got.TotalAmount)
	assert.Equal(t, "SUMMER20", got.CouponCode)
}

func TestApplyCoupon_SameCodeIsNoop(t *testing.T) {
	svc, _, _, orders, coupons, _ := newTestService()
	coupons.coupons["SUMMER20"] = &coupon.Coupon{
		Code:               "SUMMER20",
		DiscountPercentage: decimal.NewFromInt(20),
		ExpiryDate:         time.Date(2030, 7, 7, 0, 0, 0, 0, time.UTC),
	}
	o := seedOrder(orders, 80, "SUMMER20")

	got, err := svc.ApplyCoupon(context.Background(), o.ID, "SUMMER20")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(80).Equal(got.TotalAmount), "total %s", got.TotalAmount)
	assert.Empty(t, orders.updates, "no writes expected for a repeat application")
}

func TestApplyCoupon_ReplacesPrevious(t *testing.T) {
	svc, _, _, orders, coupons, _ := newTestService()
	coupons.coupons["SUMMER20"] = &coupon.Coupon{
		Code:               "SUMMER20",
		DiscountPercentage: decimal.NewFromInt(20),
		ExpiryDate:         time.Date(2030, 7, 7, 0, 0, 0, 0, time.UTC),
	}
	coupons.coupons["WINTER50"] = &coupon.Coupon{
		Code:               "WINTER50",
		DiscountPercentage: decimal.NewFromInt(50),
		ExpiryDate:         time.Date(2030, 12, 29, 0, 0, 0, 0, time.UTC),
	}
	// 100 discounted by SUMMER20 to 80 earlier.
	o := seedOrder(orders, 80, "SUMMER20")

	got, err := svc.ApplyCoupon(context.Background(), o.ID, "WINTER50")
	require.NoError(t, err)

	// 80 / (1 - 0.20) = 100, then 50% off = 50.
	assert.True(t, decimal.NewFromInt(50).Equal(got.TotalAmount), "total %s", got.TotalAmount)
	assert.Equal(t, "WINTER50", got.CouponCode)

	// The undo is persisted as its own write with the coupon detached.
	require.Len(t, orders.updates, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(orders.updates[0].total), "restored %s", orders.updates[0].total)
	assert.Empty(t, orders.updates[0].coupon)
	assert.Equal(t, "WINTER50", orders.updates[1].coupon)
}

func TestApplyCoupon_ReplaceFullDiscount(t *testing.T) {
	svc, _, _, orders, coupons, _ := newTestService()
	coupons.coupons["FREE100"] = &coupon.Coupon{
		Code:               "FREE100",
		DiscountPercentage: decimal.NewFromInt(100),
		ExpiryDate:         time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	coupons.coupons["SUMMER20"] = &coupon.Coupon{
		Code:               "SUMMER20",
		DiscountPercentage: decimal.NewFromInt(20),
		ExpiryDate:         time.Date(2030, 7, 7, 0, 0, 0, 0, time.UTC),
	}
	// A full discount drove the total to zero; the base amount is gone.
	o := seedOrder(orders, 0, "FREE100")

	var got *Order
	var err error
	require.NotPanics(t, func() {
		got, err = svc.ApplyCoupon(context.Background(), o.ID, "SUMMER20")
	})

	assert.ErrorIs(t, err, ErrDiscountNotReversible)
	assert.Nil(t, got)
	assert.Empty(t, orders.updates)
	assert.Equal(t, "FREE100", orders.orders[o.ID].CouponCode)
}

func TestApplyCoupon_Expired(t *testing.T) {
	svc, _, _, orders, coupons, _ := newTestService()
	coupons.coupons["SUMMER20"] = &coupon.Coupon{
		Code:               "SUMMER20",
		DiscountPercentage: decimal.NewFromInt(20),
		ExpiryDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	o := seedOrder(orders, 100, "")

	_, err := svc.ApplyCoupon(context.Background(), o.ID, "SUMMER20")
	assert.ErrorIs(t, err, coupon.ErrExpired)
	assert.Empty(t, orders.updates)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	svc, _, _, orders, _, _ := newTestService()
	o := seedOrder(orders, 100, "")

	_, err := svc.ApplyCoupon(context.Background(), o.ID, "NOPE")
	assert.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestApplyCoupon_OrderNotFound(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	_, err := svc.ApplyCoupon(context.Background(), 123, "SUMMER20")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _, orders, _, _ := newTestService()
	o := seedOrder(orders, 100, "")

	got, err := svc.UpdateStatus(context.Background(), o.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestUpdateStatus_Invalid(t *testing.T) {
	svc, _, _, orders, _, _ := newTestService()
	o := seedOrder(orders, 100, "")

	_, err := svc.UpdateStatus(context.Background(), o.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, StatusPending, orders.orders[o.ID].Status)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "processing", "completed"} {
		st, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), st)
	}

	_, err := ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
