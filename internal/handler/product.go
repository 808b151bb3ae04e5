package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ebalkova/ordersys/internal/domain/product"
)

type createProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
}

func (s *Server) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
	}
	if err := s.products.Create(c.Request.Context(), p); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(p))
}

func (s *Server) listProducts(c *gin.Context) {
	list, err := s.products.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := make([]productResponse, len(list))
	for i := range list {
		resp[i] = toProductResponse(&list[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getProduct(c *gin.Context) {
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	p, err := s.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}
