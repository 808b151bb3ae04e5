package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (user_id, status, order_date, total_amount, coupon_code)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')) RETURNING id`

	createOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity)
		VALUES ($1, $2, $3)`

	getOrderByIDSQL = `SELECT id, user_id, status, order_date, total_amount, COALESCE(coupon_code, '')
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, status, order_date, total_amount, COALESCE(coupon_code, '')
		FROM orders WHERE user_id = $1 ORDER BY id`

	getOrderItemsSQL = `SELECT order_id, product_id, quantity
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, product_id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	updateOrderTotalCouponSQL = `UPDATE orders SET total_amount = $2, coupon_code = NULLIF($3, '')
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its item snapshots, assigning the order ID.
// Callers wanting atomicity run this inside a TxManager transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	q := from(ctx, r.pool)
	err := q.QueryRow(ctx, createOrderSQL,
		o.UserID, string(o.Status), o.OrderDate, o.TotalAmount, o.CouponCode,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order for user %d: %w", o.UserID, err)
	}

	for _, item := range o.Items {
		if _, err := q.Exec(ctx, createOrderItemSQL, o.ID, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("creating item %d for order %d: %w", item.ProductID, o.ID, err)
		}
	}
	return nil
}

// GetByID loads an order with its items, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	var status string
	err := from(ctx, r.pool).QueryRow(ctx, getOrderByIDSQL, id).Scan(
		&o.ID, &o.UserID, &status, &o.OrderDate, &o.TotalAmount, &o.CouponCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o.Status = order.Status(status)

	items, err := r.itemsFor(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	return &o, nil
}

// ListByUser returns the user's orders with their items, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := from(ctx, r.pool).Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		var status string
		err := row.Scan(&o.ID, &o.UserID, &status, &o.OrderDate, &o.TotalAmount, &o.CouponCode)
		o.Status = order.Status(status)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []order.Item{}
		}
	}
	return orders, nil
}

// UpdateStatus sets the status field, or order.ErrNotFound.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := from(ctx, r.pool).Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// UpdateTotalAndCoupon sets the total and coupon code, or order.ErrNotFound.
func (r *OrderRepository) UpdateTotalAndCoupon(ctx context.Context, id int64, total decimal.Decimal, couponCode string) error {
	tag, err := from(ctx, r.pool).Exec(ctx, updateOrderTotalCouponSQL, id, total, couponCode)
	if err != nil {
		return fmt.Errorf("updating total of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// itemsFor batch-loads items for the given order IDs, keyed by order ID.
func (r *OrderRepository) itemsFor(ctx context.Context, ids []int64) (map[int64][]order.Item, error) {
	rows, err := from(ctx, r.pool).Query(ctx, getOrderItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]order.Item)
	for rows.Next() {
		var orderID int64
		var item order.Item
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting order items: %w", err)
	}
	return items, nil
}
