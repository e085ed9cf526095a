package service

import (
	"context"
	"errors"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]*model.Notification, error)
	FindAll(ctx context.Context) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) error
}

var ErrNotificationNotFound = errors.New("notificación no encontrada")

type NotificationService struct {
	notifications NotificationRepository
}

func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Notify materializa una notificación. Lo llama el consumer de eventos;
// el que dispara el evento nunca espera por esto.
func (s *NotificationService) Notify(ctx context.Context, recipient primitive.ObjectID, message, kind string, orderRef *primitive.ObjectID) (*model.Notification, error) {
	n := &model.Notification{
		Recipient: recipient,
		Message:   message,
		Type:      kind,
		Order:     orderRef,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// NotifyFromEvent traduce un evento del exchange a una notificación.
func (s *NotificationService) NotifyFromEvent(ctx context.Context, event dto.OrderEvent) error {
	recipient, err := primitive.ObjectIDFromHex(event.Recipient)
	if err != nil {
		return err
	}

	kind := "Order"
	if event.Event == "payment_updated" {
		kind = "Payment"
	}

	var orderRef *primitive.ObjectID
	if event.OrderID != "" {
		if id, err := primitive.ObjectIDFromHex(event.OrderID); err == nil {
			orderRef = &id
		}
	}

	_, err = s.Notify(ctx, recipient, event.Message, kind, orderRef)
	return err
}

func (s *NotificationService) GetMine(ctx context.Context, recipient primitive.ObjectID) ([]*model.Notification, error) {
	return s.notifications.FindByRecipient(ctx, recipient)
}

func (s *NotificationService) GetAll(ctx context.Context) ([]*model.Notification, error) {
	return s.notifications.FindAll(ctx)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*model.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, recipient)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) error {
	return s.notifications.MarkAllRead(ctx, recipient)
}
