package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductController struct {
	Service *service.CatalogService
}

func NewProductController(s *service.CatalogService) *ProductController {
	return &ProductController{Service: s}
}

// POST /api/products — vendor
func (ctl *ProductController) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	actor := actorFrom(c)
	p, err := ctl.Service.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/products — público, sólo activos; ?category= filtra
func (ctl *ProductController) List(c *gin.Context) {
	products, err := ctl.Service.ListPublic(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/mine — vendor, incluye inactivos propios
func (ctl *ProductController) ListMine(c *gin.Context) {
	actor := actorFrom(c)
	products, err := ctl.Service.ListByVendor(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:id — público
func (ctl *ProductController) Get(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID"})
		return
	}

	p, err := ctl.Service.Get(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/products/:id — sólo el vendor dueño
func (ctl *ProductController) Update(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID"})
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	actor := actorFrom(c)
	p, err := ctl.Service.Update(c.Request.Context(), productID, actor.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/products/:id — sólo el vendor dueño
func (ctl *ProductController) Delete(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID"})
		return
	}

	actor := actorFrom(c)
	if err := ctl.Service.Delete(c.Request.Context(), productID, actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
