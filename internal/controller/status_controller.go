package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StatusController struct {
	Service *service.TrackingService
}

func NewStatusController(s *service.TrackingService) *StatusController {
	return &StatusController{Service: s}
}

// POST /api/order-status — vendor/admin registra un cambio de estado
func (ctl *StatusController) CreateStatus(c *gin.Context) {
	var req dto.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(req.Order)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	rec, err := ctl.Service.RecordStatus(c.Request.Context(), orderID, req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": rec})
}

// PATCH /api/order-status/:orderId — misma operación, orden por path
func (ctl *StatusController) UpdateStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	rec, err := ctl.Service.RecordStatus(c.Request.Context(), orderID, req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": rec})
}

// GET /api/order-status/track/:orderId — línea de tiempo; el customer
// sólo ve sus propias órdenes, el vendor sólo las asignadas.
func (ctl *StatusController) Track(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	timeline, err := ctl.Service.GetTimeline(c.Request.Context(), orderID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, timeline)
}
