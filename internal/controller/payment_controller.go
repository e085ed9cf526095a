package controller

import (
	"io"
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	Service *service.PaymentService
}

func NewPaymentController(s *service.PaymentService) *PaymentController {
	return &PaymentController{Service: s}
}

// POST /api/payments — customer registra el intento de pago
func (ctl *PaymentController) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	actor := actorFrom(c)
	payment, err := ctl.Service.RecordAttempt(c.Request.Context(), actor.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// POST /api/payments/stripe/webhook — sin auth: lo protege la firma.
// El cuerpo se lee crudo porque la firma cubre los bytes exactos.
func (ctl *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unreadable body"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := ctl.Service.HandleWebhook(c.Request.Context(), payload, sig); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GET /api/payments — admin
func (ctl *PaymentController) GetAll(c *gin.Context) {
	payments, err := ctl.Service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
