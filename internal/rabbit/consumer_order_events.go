package rabbit

import (
	"context"
	"encoding/json"

	"marketplace-api/internal/service"

	"github.com/sirupsen/logrus"
)

// OrderEventConsumer materializa los eventos del exchange como
// notificaciones. Los errores sólo se loguean: el flujo que disparó el
// evento ya terminó.
type OrderEventConsumer struct {
	Notifications *service.NotificationService
}

func NewOrderEventConsumer(s *service.NotificationService) *OrderEventConsumer {
	return &OrderEventConsumer{Notifications: s}
}

func (c *OrderEventConsumer) Handle(msg []byte) error {
	var envelope OrderEventEnvelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		logrus.WithError(err).Warn("mensaje de order_events ilegible")
		return err
	}

	event := envelope.Message
	if event.Recipient == "" {
		logrus.WithField("event", event.Event).Warn("evento sin destinatario, se descarta")
		return nil
	}

	if err := c.Notifications.NotifyFromEvent(context.Background(), event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Event,
			"orderId": event.OrderID,
		}).Error("no se pudo crear la notificación")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"event":   event.Event,
		"orderId": event.OrderID,
	}).Info("notificación creada")
	return nil
}
