package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the user has no cart.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when the cart has no line for the product.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrProductUnavailable is returned when the product does not exist or
	// its stock cannot cover the requested quantity.
	ErrProductUnavailable = errors.New("product not found or out of stock")
)

// Cart holds a user's in-progress product selection. A cart is created
// lazily on the first add and survives checkout with its items removed.
type Cart struct {
	ID          int64
	UserID      int64
	TotalAmount decimal.Decimal
	Items       []Item
}

// Item is a single cart line. Name and UnitPrice are denormalized from the
// product catalog for cart views and total recomputation.
type Item struct {
	ProductID int64
	Quantity  int
	Name      string
	UnitPrice decimal.Decimal
}

// Repository defines persistence operations for carts and their items.
type Repository interface {
	// GetByUserID loads the user's cart with its items, or ErrNotFound.
	GetByUserID(ctx context.Context, userID int64) (*Cart, error)
	Create(ctx context.Context, userID int64) (*Cart, error)

	// AddItemQuantity inserts a line or increments the existing one.
	AddItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	// SetItemQuantity replaces the line's quantity, or ErrItemNotFound.
	SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	// RemoveItem deletes the line and returns it, or ErrItemNotFound.
	RemoveItem(ctx context.Context, cartID, productID int64) (*Item, error)
	// Clear deletes all lines. The cart row itself survives.
	Clear(ctx context.Context, cartID int64) error

	SetTotal(ctx context.Context, cartID int64, total decimal.Decimal) error
}
