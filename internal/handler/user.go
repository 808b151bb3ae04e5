package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ebalkova/ordersys/internal/domain/user"
)

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u := &user.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	}
	if err := s.users.Create(c.Request.Context(), u); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (s *Server) getUser(c *gin.Context) {
	userID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	u, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) userOrders(c *gin.Context) {
	userID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	// Verify the user exists so an unknown ID answers 404 instead of an
	// empty history.
	if _, err := s.users.GetByID(c.Request.Context(), userID); err != nil {
		s.respondError(c, err)
		return
	}

	orders, err := s.orders.History(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, resp)
}
