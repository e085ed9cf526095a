package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatController struct {
	Service *service.ChatService
}

func NewChatController(s *service.ChatService) *ChatController {
	return &ChatController{Service: s}
}

// POST /api/chats — customer abre (o recupera) el hilo con un vendor
func (ctl *ChatController) Open(c *gin.Context) {
	var req dto.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	vendorID, err := primitive.ObjectIDFromHex(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vendor ID"})
		return
	}

	actor := actorFrom(c)
	chat, err := ctl.Service.OpenThread(c.Request.Context(), actor.ID, vendorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// GET /api/chats — hilos del usuario logueado (lado según rol)
func (ctl *ChatController) List(c *gin.Context) {
	chats, err := ctl.Service.ListMine(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// POST /api/chats/:id/messages
func (ctl *ChatController) SendMessage(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat ID"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	chat, err := ctl.Service.SendMessage(c.Request.Context(), chatID, actorFrom(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// POST /api/chats/:id/assistant — respuesta generada, con fallback
func (ctl *ChatController) AssistantReply(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat ID"})
		return
	}

	chat, err := ctl.Service.AssistantReply(c.Request.Context(), chatID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}
