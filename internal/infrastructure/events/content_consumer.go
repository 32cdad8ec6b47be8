package events

import (
	"context"
	"encoding/json"

	"github.com/cliptag/cliptag/internal/infrastructure/contracts"
	"github.com/cliptag/cliptag/internal/infrastructure/logging"
	"github.com/cliptag/cliptag/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

// contentConsumer drains the content event queue and writes an audit trail.
// It exists so the queue does not pile up in single-instance deployments;
// multi-instance fan-out would replace the log call with a hub replay.
type contentConsumer struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
}

func NewContentConsumer(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *contentConsumer {
	return &contentConsumer{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

func (c *contentConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.ContentQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			return err
		}

		c.logger.Info(logging.RabbitMQ, logging.ExternalService, "content event", map[logging.ExtraKey]any{
			logging.RoomTag: message.Tag,
			"routingKey":    msg.RoutingKey,
		})

		return nil
	})
}
