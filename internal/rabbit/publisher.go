package rabbit

import (
	"context"
	"encoding/json"

	"marketplace-api/internal/dto"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const OrderEventsExchange = "order_events"

// Sobre que viaja por el exchange; el consumer sólo mira Message.
type OrderEventEnvelope struct {
	CorrelationID string         `json:"correlation_id"`
	Exchange      string         `json:"exchange"`
	Message       dto.OrderEvent `json:"message"`
}

type Publisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		OrderEventsExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) PublishOrderEvent(ctx context.Context, event dto.OrderEvent) error {
	envelope := OrderEventEnvelope{
		CorrelationID: uuid.NewString(),
		Exchange:      OrderEventsExchange,
		Message:       event,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx,
		OrderEventsExchange,
		"", // fanout ignora routing key
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
