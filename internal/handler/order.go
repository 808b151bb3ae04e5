package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type applyCouponRequest struct {
	OrderID    int64  `json:"orderId" binding:"required"`
	CouponCode string `json:"couponCode" binding:"required"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := s.orders.Checkout(c.Request.Context(), req.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (s *Server) getOrder(c *gin.Context) {
	orderID, err := parseID(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	o, err := s.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	orderID, err := parseID(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := s.orders.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := s.orders.ApplyCoupon(c.Request.Context(), req.OrderID, req.CouponCode)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}
