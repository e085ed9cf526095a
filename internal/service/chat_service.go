package service

import (
	"context"
	"errors"
	"time"

	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	Create(ctx context.Context, c *model.Chat) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error)
	FindByParticipants(ctx context.Context, customer, vendor primitive.ObjectID) (*model.Chat, error)
	FindByCustomer(ctx context.Context, customer primitive.ObjectID) ([]*model.Chat, error)
	FindByVendor(ctx context.Context, vendor primitive.ObjectID) ([]*model.Chat, error)
	AppendMessage(ctx context.Context, chatID primitive.ObjectID, msg model.ChatMessage) error
}

// AssistClient genera la respuesta automática de soporte.
type AssistClient interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

var ErrChatNotFound = errors.New("chat no encontrado")

type ChatService struct {
	chats    ChatRepository
	users    UserRepository
	assist   AssistClient
	fallback string
}

func NewChatService(chats ChatRepository, users UserRepository, assist AssistClient, fallback string) *ChatService {
	return &ChatService{chats: chats, users: users, assist: assist, fallback: fallback}
}

// OpenThread devuelve el hilo (customer, vendor), creándolo si no existe.
func (s *ChatService) OpenThread(ctx context.Context, customerID, vendorID primitive.ObjectID) (*model.Chat, error) {
	vendor, err := s.users.FindByID(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotAVendor
	}
	if err != nil {
		return nil, err
	}
	if vendor.Role != model.RoleVendor {
		return nil, ErrNotAVendor
	}

	chat, err := s.chats.FindByParticipants(ctx, customerID, vendorID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	chat = &model.Chat{Customer: customerID, Vendor: vendorID}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) ListMine(ctx context.Context, actor Actor) ([]*model.Chat, error) {
	if actor.Role == model.RoleVendor {
		return s.chats.FindByVendor(ctx, actor.ID)
	}
	return s.chats.FindByCustomer(ctx, actor.ID)
}

// SendMessage agrega el mensaje al hilo; sólo los dos participantes pueden
// escribir, y el rol del actor define el remitente.
func (s *ChatService) SendMessage(ctx context.Context, chatID primitive.ObjectID, actor Actor, content string) (*model.Chat, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}

	var sender string
	switch {
	case actor.Role == model.RoleVendor && chat.Vendor == actor.ID:
		sender = model.SenderVendor
	case actor.Role == model.RoleCustomer && chat.Customer == actor.ID:
		sender = model.SenderCustomer
	default:
		return nil, ErrForbidden
	}

	msg := model.ChatMessage{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, chatID, msg); err != nil {
		return nil, err
	}

	return s.chats.FindByID(ctx, chatID)
}

// AssistantReply pide una respuesta generada para el último mensaje del
// cliente; si el proveedor falla, contesta el texto enlatado. Sólo el
// cliente del hilo puede pedirla.
func (s *ChatService) AssistantReply(ctx context.Context, chatID primitive.ObjectID, actor Actor) (*model.Chat, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleCustomer || chat.Customer != actor.ID {
		return nil, ErrForbidden
	}

	prompt := ""
	for i := len(chat.Messages) - 1; i >= 0; i-- {
		if chat.Messages[i].Sender == model.SenderCustomer {
			prompt = chat.Messages[i].Content
			break
		}
	}

	reply := s.fallback
	if s.assist != nil && prompt != "" {
		generated, err := s.assist.GenerateReply(ctx, prompt)
		if err != nil {
			logrus.WithError(err).WithField("chatId", chatID.Hex()).Warn("assist falló, se usa la respuesta enlatada")
		} else {
			reply = generated
		}
	}

	msg := model.ChatMessage{
		Sender:    model.SenderAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, chatID, msg); err != nil {
		return nil, err
	}

	return s.chats.FindByID(ctx, chatID)
}
