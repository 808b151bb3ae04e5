package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartMutationRequest struct {
	UserID    int64 `json:"userId" binding:"required"`
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gte=1"`
}

type cartRemoveRequest struct {
	UserID    int64 `json:"userId" binding:"required"`
	ProductID int64 `json:"productId" binding:"required"`
}

func (s *Server) addToCart(c *gin.Context) {
	var req cartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.carts.Add(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(result))
}

func (s *Server) viewCart(c *gin.Context) {
	userID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	result, err := s.carts.Get(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(result))
}

func (s *Server) updateCart(c *gin.Context) {
	var req cartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.carts.Update(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(result))
}

func (s *Server) removeFromCart(c *gin.Context) {
	var req cartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	removed, err := s.carts.Remove(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartItemResponse{
		ProductID: removed.ProductID,
		Quantity:  removed.Quantity,
	})
}
