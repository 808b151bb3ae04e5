package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/cart"
	"github.com/ebalkova/ordersys/internal/domain/coupon"
	"github.com/ebalkova/ordersys/internal/domain/product"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Service implements checkout, coupon application, status updates, and order
// reads.
type Service struct {
	carts    cart.Repository
	products product.Repository
	orders   Repository
	coupons  coupon.Repository
	tx       TxManager
	now      func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(
	carts cart.Repository,
	products product.Repository,
	orders Repository,
	coupons coupon.Repository,
	tx TxManager,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		orders:   orders,
		coupons:  coupons,
		tx:       tx,
		now:      time.Now,
	}
}

// Checkout converts the user's cart into an order. The whole conversion runs
// in one transaction: stock re-validation, order and item creation, stock
// decrement, and cart clearing either all persist or none do.
//
// The total is computed from live product prices, not the cart's stored total.
func (s *Service) Checkout(ctx context.Context, userID int64) (*Order, error) {
	var created *Order
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		for _, item := range c.Items {
			p, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return &product.OutOfStockError{ProductID: item.ProductID}
				}
				return errors.Wrapf(err, "get product %d", item.ProductID)
			}
			if p.Stock < item.Quantity {
				return &product.OutOfStockError{ProductID: item.ProductID}
			}
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		o := &Order{
			UserID:      userID,
			Status:      StatusPending,
			OrderDate:   s.now(),
			TotalAmount: total.Round(2),
			Items:       make([]Item, len(c.Items)),
		}
		for i, item := range c.Items {
			o.Items[i] = Item{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		// Decrement under the same transaction: the conditional update guards
		// against concurrent checkouts draining the same product.
		for _, item := range o.Items {
			if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.carts.Clear(ctx, c.ID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApplyCoupon attaches a coupon to an order, recomputing the total. Applying
// the coupon the order already carries is a no-op. When a different coupon is
// attached, its discount is undone first by restoring the pre-discount amount
// (total / (1 - oldPct/100)) before the new percentage is applied.
func (s *Service) ApplyCoupon(ctx context.Context, orderID int64, code string) (*Order, error) {
	var result *Order
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		if o.CouponCode == code {
			result = o
			return nil
		}

		newCoupon, err := s.coupons.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if newCoupon.Expired(s.now()) {
			return coupon.ErrExpired
		}

		total := o.TotalAmount
		if o.CouponCode != "" {
			old, err := s.coupons.FindByCode(ctx, o.CouponCode)
			switch {
			case err == nil:
				// A 100% discount leaves no remainder to scale back up, so the
				// pre-discount amount is unrecoverable from the stored total.
				remainder := one.Sub(old.DiscountPercentage.Div(hundred))
				if remainder.IsZero() {
					return ErrDiscountNotReversible
				}
				total = total.Div(remainder).Round(2)
				if err := s.orders.UpdateTotalAndCoupon(ctx, o.ID, total, ""); err != nil {
					return errors.Wrap(err, "refund previous coupon")
				}
			case !errors.Is(err, coupon.ErrNotFound):
				return errors.Wrap(err, "lookup previous coupon")
			}
		}

		discount := total.Mul(newCoupon.DiscountPercentage).Div(hundred)
		total = total.Sub(discount).Round(2)
		if err := s.orders.UpdateTotalAndCoupon(ctx, o.ID, total, newCoupon.Code); err != nil {
			return errors.Wrap(err, "apply coupon")
		}

		o.TotalAmount = total
		o.CouponCode = newCoupon.Code
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus sets the order status. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, st); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// History returns all orders placed by the user.
func (s *Service) History(ctx context.Context, userID int64) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
