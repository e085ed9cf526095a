package controller

import (
	"errors"
	"net/http"

	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError traduce los errores de negocio al código HTTP que
// corresponde; cualquier otro error es un 500 genérico sin detalles.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "access denied"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
	case errors.Is(err, service.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
	case errors.Is(err, service.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
	case errors.Is(err, service.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Payment not found"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
	case errors.Is(err, service.ErrBadRole):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Role not allowed"})
	case errors.Is(err, service.ErrNotAVendor):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Not a vendor"})
	case errors.Is(err, service.ErrTotalMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Total amount does not match current prices"})
	case errors.Is(err, service.ErrProductUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product is not available"})
	case errors.Is(err, service.ErrOTPExpired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "OTP not found or expired"})
	case errors.Is(err, service.ErrOTPMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Incorrect OTP"})
	case errors.Is(err, service.ErrBadSignature):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid webhook signature"})
	case errors.Is(err, service.ErrBadWebhookEvent):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed webhook event"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
	case errors.Is(err, service.ErrDuplicateStatus):
		c.JSON(http.StatusConflict, gin.H{"message": "Status already exists for this order"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "Order was modified concurrently, retry"})
	case errors.Is(err, service.ErrFinalState):
		c.JSON(http.StatusConflict, gin.H{"message": "Order is in a final state"})
	case errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"message": "Insufficient stock"})
	case errors.Is(err, service.ErrMailDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to send OTP email. Try again later."})
	default:
		logrus.WithError(err).Error("error no manejado")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
