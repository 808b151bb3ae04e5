package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/product"
)

// Service implements cart mutations: add, update, remove, view.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Add puts quantity units of the product into the user's cart, creating the
// cart when the user has none and incrementing the line when it already
// exists. The cart total is recomputed from live product prices.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (*Cart, error) {
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		c, err = s.carts.Create(ctx, userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	if err := s.carts.AddItemQuantity(ctx, c.ID, productID, quantity); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}

	return s.refreshTotal(ctx, userID)
}

// Update replaces the quantity of an existing cart line and recomputes the
// cart total. Unlike Add, the quantity is not incremented.
func (s *Service) Update(ctx context.Context, userID, productID int64, quantity int) (*Cart, error) {
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetItemQuantity(ctx, c.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.refreshTotal(ctx, userID)
}

// Remove deletes a line from the user's cart and returns the removed item.
//
// The stored total is zeroed before the line is deleted, regardless of any
// other lines still in the cart. This mirrors the long-standing production
// behaviour; a later Add or Update recomputes the correct total.
func (s *Service) Remove(ctx context.Context, userID, productID int64) (*Item, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetTotal(ctx, c.ID, decimal.Zero); err != nil {
		return nil, errors.Wrap(err, "reset cart total")
	}

	return s.carts.RemoveItem(ctx, c.ID, productID)
}

// Get returns the user's cart with its items.
func (s *Service) Get(ctx context.Context, userID int64) (*Cart, error) {
	return s.carts.GetByUserID(ctx, userID)
}

// checkStock verifies the product exists and has at least quantity in stock.
// Both failure modes collapse into ErrProductUnavailable.
func (s *Service) checkStock(ctx context.Context, productID int64, quantity int) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return ErrProductUnavailable
		}
		return errors.Wrap(err, "get product")
	}
	if p.Stock < quantity {
		return ErrProductUnavailable
	}
	return nil
}

// refreshTotal reloads the cart, recomputes the total from the current lines
// and their live prices, and persists it.
func (s *Service) refreshTotal(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reload cart")
	}

	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	total = total.Round(2)

	if err := s.carts.SetTotal(ctx, c.ID, total); err != nil {
		return nil, errors.Wrap(err, "persist cart total")
	}
	c.TotalAmount = total

	return c, nil
}
