package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationController struct {
	Service *service.NotificationService
}

func NewNotificationController(s *service.NotificationService) *NotificationController {
	return &NotificationController{Service: s}
}

// GET /api/notifications/mine
func (ctl *NotificationController) GetMine(c *gin.Context) {
	actor := actorFrom(c)
	notifications, err := ctl.Service.GetMine(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// GET /api/notifications — admin
func (ctl *NotificationController) GetAll(c *gin.Context) {
	notifications, err := ctl.Service.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// POST /api/notifications — admin, alta manual
func (ctl *NotificationController) Create(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	recipient, err := primitive.ObjectIDFromHex(req.Recipient)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recipient ID"})
		return
	}

	var orderRef *primitive.ObjectID
	if req.OrderID != "" {
		id, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order ID"})
			return
		}
		orderRef = &id
	}

	n, err := ctl.Service.Notify(c.Request.Context(), recipient, req.Message, req.Type, orderRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// PUT /api/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid notification ID"})
		return
	}

	actor := actorFrom(c)
	n, err := ctl.Service.MarkRead(c.Request.Context(), id, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// PUT /api/notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	actor := actorFrom(c)
	if err := ctl.Service.MarkAllRead(c.Request.Context(), actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
