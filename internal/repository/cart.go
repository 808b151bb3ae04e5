package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/cart"
)

const (
	getCartByUserSQL = `SELECT id, user_id, total_amount FROM carts WHERE user_id = $1`

	createCartSQL = `INSERT INTO carts (user_id) VALUES ($1) RETURNING id`

	getCartItemsSQL = `SELECT ci.product_id, ci.quantity, p.name, p.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id`

	addCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartItemSQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2`

	removeCartItemSQL = `DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
		RETURNING product_id, quantity`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	setCartTotalSQL = `UPDATE carts SET total_amount = $2 WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUserID loads the user's cart with its items, or cart.ErrNotFound.
func (r *CartRepository) GetByUserID(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := from(ctx, r.pool).QueryRow(ctx, getCartByUserSQL, userID).Scan(
		&c.ID, &c.UserID, &c.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for user %d: %w", userID, err)
	}

	rows, err := from(ctx, r.pool).Query(ctx, getCartItemsSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("getting items for cart %d: %w", c.ID, err)
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for cart %d: %w", c.ID, err)
	}
	return &c, nil
}

// Create inserts an empty cart for the user.
func (r *CartRepository) Create(ctx context.Context, userID int64) (*cart.Cart, error) {
	c := &cart.Cart{UserID: userID, TotalAmount: decimal.Zero}
	err := from(ctx, r.pool).QueryRow(ctx, createCartSQL, userID).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("creating cart for user %d: %w", userID, err)
	}
	return c, nil
}

// AddItemQuantity inserts a cart line or increments the existing one.
func (r *CartRepository) AddItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	_, err := from(ctx, r.pool).Exec(ctx, addCartItemSQL, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("adding item %d to cart %d: %w", productID, cartID, err)
	}
	return nil
}

// SetItemQuantity replaces the line's quantity, or cart.ErrItemNotFound.
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	tag, err := from(ctx, r.pool).Exec(ctx, setCartItemSQL, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("updating item %d in cart %d: %w", productID, cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes the line and returns it, or cart.ErrItemNotFound.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
	var item cart.Item
	err := from(ctx, r.pool).QueryRow(ctx, removeCartItemSQL, cartID, productID).Scan(
		&item.ProductID, &item.Quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("removing item %d from cart %d: %w", productID, cartID, err)
	}
	return &item, nil
}

// Clear deletes all lines from the cart. The cart row itself survives.
func (r *CartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := from(ctx, r.pool).Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %d: %w", cartID, err)
	}
	return nil
}

// SetTotal persists the cart's stored total amount.
func (r *CartRepository) SetTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	if _, err := from(ctx, r.pool).Exec(ctx, setCartTotalSQL, cartID, total); err != nil {
		return fmt.Errorf("setting total for cart %d: %w", cartID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		item  cart.Item
		price decimal.Decimal
	)
	err := row.Scan(&item.ProductID, &item.Quantity, &item.Name, &price)
	item.UnitPrice = price
	return item, err
}
