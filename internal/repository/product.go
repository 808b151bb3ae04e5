package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/product"
)

const (
	createProductSQL = `INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4) RETURNING id`

	getProductByIDSQL = `SELECT id, name, description, price, stock
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, name, description, price, stock
		FROM products ORDER BY id`

	countProductsSQL = `SELECT COUNT(*) FROM products`

	// The stock guard keeps the row untouched when the decrement would drive
	// stock negative; zero rows affected signals insufficient stock.
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product, assigning its ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := from(ctx, r.pool).QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.Stock,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// GetByID returns a single product, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := from(ctx, r.pool).Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := from(ctx, r.pool).Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Count returns the number of catalog products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := from(ctx, r.pool).QueryRow(ctx, countProductsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// DecrementStock subtracts quantity from the product's stock, failing with an
// OutOfStockError when the guard rejects the update.
func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	tag, err := from(ctx, r.pool).Exec(ctx, decrementStockSQL, id, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock for product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &product.OutOfStockError{ProductID: id}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock)
	p.Price = price
	return p, err
}
