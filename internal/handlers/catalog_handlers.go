package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/gin-gonic/gin"
)

// GetAllCategories handles GET /v1/categories
func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

type productQuery struct {
	Category int64  `form:"category" binding:"omitempty,min=1"`
	Search   string `form:"search" binding:"max=255"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SearchProducts handles GET /v1/products
func (h *Handlers) SearchProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	page, err := h.Catalog.ListProducts(c.Request.Context(), catalog.Filter{
		CategoryID: q.Category,
		Search:     q.Search,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(page.Count))
	c.JSON(http.StatusOK, page)
}

// GetProduct handles GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
