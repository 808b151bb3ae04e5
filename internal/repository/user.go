package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ebalkova/ordersys/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (name, email, password, address)
		VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id, created_at`

	getUserByIDSQL = `SELECT id, name, email, password, COALESCE(address, ''), created_at
		FROM users WHERE id = $1`

	countUsersSQL = `SELECT COUNT(*) FROM users`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user, assigning its ID. Returns
// user.ErrDuplicateEmail when the email is already registered.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := from(ctx, r.pool).QueryRow(ctx, createUserSQL,
		u.Name, u.Email, u.Password, u.Address,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return user.ErrDuplicateEmail
		}
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// GetByID returns a single user, or user.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := from(ctx, r.pool).QueryRow(ctx, getUserByIDSQL, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Address, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &u, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := from(ctx, r.pool).QueryRow(ctx, countUsersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
