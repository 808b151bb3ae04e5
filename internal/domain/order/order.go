package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle field. Any status may follow any other;
// there is no enforced transition graph.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidStatus is returned for a status outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrDiscountNotReversible is returned when replacing a coupon whose
	// discount cannot be undone from the stored total.
	ErrDiscountNotReversible = errors.New("existing discount cannot be undone")
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusCompleted:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order records a completed checkout. Except for Status, TotalAmount and
// CouponCode (coupon application), an order is immutable once created.
type Order struct {
	ID          int64
	UserID      int64
	Status      Status
	OrderDate   time.Time
	TotalAmount decimal.Decimal
	CouponCode  string
	Items       []Item
}

// Item is an immutable snapshot of a cart line at order-creation time.
type Item struct {
	ProductID int64
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts the order and its items, assigning the order ID.
	Create(ctx context.Context, o *Order) error
	// GetByID loads an order with its items, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// UpdateStatus sets the status field, or ErrNotFound.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// UpdateTotalAndCoupon sets the total and coupon code. An empty coupon
	// code is stored as NULL.
	UpdateTotalAndCoupon(ctx context.Context, id int64, total decimal.Decimal, couponCode string) error
}

// TxManager runs fn inside a single database transaction. Repository calls
// made with the ctx passed to fn join that transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
