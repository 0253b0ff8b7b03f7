package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
)

type createProductRequest struct {
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Description   string  `json:"description"`
	CostPrice     float64 `json:"cost_price"`
	SellingPrice  float64 `json:"selling_price"`
	Quantity      int     `json:"quantity"`
	ReorderLevel  int     `json:"reorder_level"`
	CriticalLevel int     `json:"critical_level"`
	CeilingLevel  int     `json:"ceiling_level"`
	Unit          string  `json:"unit"`
	Barcode       string  `json:"barcode"`
	Supplier      string  `json:"supplier"`
	AddedBy       string  `json:"added_by"`
	ExpiryDate    int64   `json:"expiry_date"`
	ProductType   string  `json:"product_type"`
	ImagePath     string  `json:"image_path"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	localID, err := s.productSvc.Add(c.Request.Context(), productdomain.AddRequest{
		Name:          strings.TrimSpace(req.Name),
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Description:   req.Description,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
		ReorderLevel:  req.ReorderLevel,
		CriticalLevel: req.CriticalLevel,
		CeilingLevel:  req.CeilingLevel,
		Unit:          req.Unit,
		Barcode:       req.Barcode,
		Supplier:      req.Supplier,
		AddedBy:       req.AddedBy,
		ExpiryDate:    req.ExpiryDate,
		ProductType:   req.ProductType,
		ImagePath:     req.ImagePath,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	product, err := s.productSvc.GetByLocalID(c.Request.Context(), localID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) ListProducts(c *gin.Context) {
	var query struct {
		Category   string `form:"category"`
		ActiveOnly bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	products, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		Category:   strings.TrimSpace(query.Category),
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) GetProductByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

type updateProductRequest struct {
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Description   string  `json:"description"`
	CostPrice     float64 `json:"cost_price"`
	SellingPrice  float64 `json:"selling_price"`
	Quantity      int     `json:"quantity"`
	ReorderLevel  int     `json:"reorder_level"`
	CriticalLevel int     `json:"critical_level"`
	CeilingLevel  int     `json:"ceiling_level"`
	Unit          string  `json:"unit"`
	ImagePath     string  `json:"image_path"`
}

func (s *Server) UpdateProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.productSvc.Update(c.Request.Context(), productdomain.UpdateRequest{
		RemoteID:      id,
		Name:          strings.TrimSpace(req.Name),
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Description:   req.Description,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
		ReorderLevel:  req.ReorderLevel,
		CriticalLevel: req.CriticalLevel,
		CeilingLevel:  req.CeilingLevel,
		Unit:          req.Unit,
		ImagePath:     req.ImagePath,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UpdateProductQuantity(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.productSvc.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.productSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RetryProductSync(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	localID, err := snowflake.ParseString(id)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.productSvc.RetrySync(c.Request.Context(), localID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
