package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/coupon"
)

type createCouponRequest struct {
	Code               string  `json:"code" binding:"required"`
	DiscountPercentage float64 `json:"discountPercentage" binding:"gte=0,lte=100"`
	ExpiryDate         string  `json:"expiryDate" binding:"required"`
}

func (s *Server) createCoupon(c *gin.Context) {
	var req createCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry date"})
		return
	}

	cp := &coupon.Coupon{
		Code:               req.Code,
		DiscountPercentage: decimal.NewFromFloat(req.DiscountPercentage),
		ExpiryDate:         expiry,
	}
	if err := s.coupons.Create(c.Request.Context(), cp); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCouponResponse(cp))
}

// parseExpiry accepts RFC 3339 timestamps and bare dates.
func parseExpiry(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
