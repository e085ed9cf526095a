package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderController struct {
	Orders   *service.OrderService
	Tracking *service.TrackingService
}

func NewOrderController(orders *service.OrderService, tracking *service.TrackingService) *OrderController {
	return &OrderController{Orders: orders, Tracking: tracking}
}

// POST /api/orders — customer
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	actor := actorFrom(c)
	order, err := ctl.Orders.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /api/orders/myorders — customer
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	actor := actorFrom(c)
	orders, err := ctl.Orders.GetMine(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /api/orders/vendor — vendor, sólo las asignadas
func (ctl *OrderController) GetVendorOrders(c *gin.Context) {
	actor := actorFrom(c)
	orders, err := ctl.Orders.GetForVendor(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /api/orders — admin
func (ctl *OrderController) GetAll(c *gin.Context) {
	orders, err := ctl.Orders.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /api/orders/:id
func (ctl *OrderController) GetByID(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	order, err := ctl.Orders.GetByID(c.Request.Context(), orderID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/orders/:id/assign — admin
func (ctl *OrderController) AssignVendor(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	var req dto.AssignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	vendorID, err := primitive.ObjectIDFromHex(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vendor ID"})
		return
	}

	order, err := ctl.Tracking.AssignVendor(c.Request.Context(), orderID, vendorID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vendor assigned successfully",
		"order":   order,
	})
}

// PUT /api/orders/:id/status — admin fuerza un estado por el mismo camino
// validado que los vendors.
func (ctl *OrderController) ForceStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	rec, err := ctl.Tracking.RecordStatus(c.Request.Context(), orderID, req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": rec})
}

// DELETE /api/orders/:id — admin, terminal
func (ctl *OrderController) Delete(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
		return
	}

	if err := ctl.Orders.Delete(c.Request.Context(), orderID, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
