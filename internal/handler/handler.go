// Package handler exposes the HTTP API over gin, delegating business logic
// to the domain services and repositories.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ebalkova/ordersys/internal/domain/cart"
	"github.com/ebalkova/ordersys/internal/domain/coupon"
	"github.com/ebalkova/ordersys/internal/domain/order"
	"github.com/ebalkova/ordersys/internal/domain/product"
	"github.com/ebalkova/ordersys/internal/domain/user"
)

// Server holds the gin engine and the domain dependencies of the handlers.
type Server struct {
	engine   *gin.Engine
	carts    *cart.Service
	orders   *order.Service
	users    user.Repository
	products product.Repository
	coupons  coupon.Repository
}

// NewServer constructs a Server and registers all API routes under /api.
func NewServer(
	carts *cart.Service,
	orders *order.Service,
	users user.Repository,
	products product.Repository,
	coupons coupon.Repository,
) *Server {
	engine := gin.New()
	s := &Server{
		engine:   engine,
		carts:    carts,
		orders:   orders,
		users:    users,
		products: products,
		coupons:  coupons,
	}
	s.registerRoutes()
	return s
}

// Engine returns the underlying gin engine for mounting into an http.Server.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/cart/add", s.addToCart)
	api.GET("/cart/:userId", s.viewCart)
	api.PATCH("/cart/update", s.updateCart)
	api.DELETE("/cart/remove", s.removeFromCart)

	api.POST("/orders", s.createOrder)
	api.GET("/orders/:orderId", s.getOrder)
	api.PUT("/orders/:orderId/status", s.updateOrderStatus)
	api.POST("/orders/apply-coupon", s.applyCoupon)

	api.POST("/products", s.createProduct)
	api.GET("/products", s.listProducts)
	api.GET("/products/:productId", s.getProduct)

	api.POST("/users", s.createUser)
	api.GET("/users/:userId", s.getUser)
	api.GET("/users/:userId/orders", s.userOrders)

	api.POST("/coupons", s.createCoupon)
}

// respondError maps a domain error to its HTTP status. Unexpected errors are
// logged and answered with a generic message so internals do not leak.
func (s *Server) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	var oos *product.OutOfStockError
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrDiscountNotReversible),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrDuplicateCode),
		errors.Is(err, user.ErrDuplicateEmail),
		errors.As(err, &oos):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseID parses a positive int64 path parameter.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// Response DTOs. Monetary values are emitted as JSON numbers; internally all
// arithmetic uses decimals.

type cartItemResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	Quantity  int     `json:"quantity"`
}

type cartResponse struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"userId"`
	TotalAmount float64            `json:"totalAmount"`
	Items       []cartItemResponse `json:"items"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return cartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		TotalAmount: c.TotalAmount.InexactFloat64(),
		Items:       items,
	}
}

type orderItemResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"userId"`
	Status      string              `json:"status"`
	OrderDate   time.Time           `json:"orderDate"`
	TotalAmount float64             `json:"totalAmount"`
	CouponCode  string              `json:"couponCode,omitempty"`
	Items       []orderItemResponse `json:"items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return orderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		OrderDate:   o.OrderDate,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		CouponCode:  o.CouponCode,
		Items:       items,
	}
}

type productResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
	}
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
}

type couponResponse struct {
	Code               string    `json:"code"`
	DiscountPercentage float64   `json:"discountPercentage"`
	ExpiryDate         time.Time `json:"expiryDate"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage.InexactFloat64(),
		ExpiryDate:         c.ExpiryDate,
	}
}
