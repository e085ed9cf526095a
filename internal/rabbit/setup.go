// setup.go
package rabbit

import (
	"marketplace-api/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

func SetupConsumers(ch *amqp091.Channel, notifications *service.NotificationService) {
	consumer := NewOrderEventConsumer(notifications)

	// 1. Declarar la queue propia del servicio
	q, err := ch.QueueDeclare(
		"marketplace_notifications",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logrus.WithError(err).Error("error declarando queue")
		return
	}

	// 2. Bindear al exchange fanout
	err = ch.QueueBind(
		q.Name,
		"", // fanout ignora routing key
		OrderEventsExchange,
		false,
		nil,
	)
	if err != nil {
		logrus.WithError(err).Error("error binding exchange")
		return
	}

	// 3. Consumir
	msgs, err := ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logrus.WithError(err).Error("error al consumir queue")
		return
	}

	go func() {
		for m := range msgs {
			consumer.Handle(m.Body)
		}
	}()

	logrus.WithField("exchange", OrderEventsExchange).Info("suscrito al exchange de eventos de orden")
}
