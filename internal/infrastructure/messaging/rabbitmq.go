package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cliptag/cliptag/internal/infrastructure/contracts"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ContentExchange    = "cliptag"
	DeadLetterExchange = "dlx"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %v", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		Channel: ch,
	}

	if err := rmq.declareTopology(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) declareTopology() error {
	if err := r.Channel.ExchangeDeclare(
		ContentExchange, "topic", true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %v", err)
	}

	if err := r.Channel.ExchangeDeclare(
		DeadLetterExchange, "fanout", true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %v", err)
	}

	if err := r.declareAndBindQueue(ContentQueue, []string{
		contracts.EventClipboardUpdated,
		contracts.EventClipboardDeleted,
		contracts.EventFileUploaded,
		contracts.EventFileDeleted,
		contracts.EventRoomCreated,
		contracts.EventRoomDeleted,
	}, ContentExchange); err != nil {
		return err
	}

	q, err := r.Channel.QueueDeclare(DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %v", err)
	}

	return r.Channel.QueueBind(q.Name, "", DeadLetterExchange, false, nil)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *RabbitMQ) declareAndBindQueue(queueName string, messageTypes []string, exchange string) error {
	// Add dead letter configuration
	args := amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	q, err := r.Channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		args,      // arguments with DLX config
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %v", queueName, err)
	}

	for _, msg := range messageTypes {
		if err := r.Channel.QueueBind(
			q.Name,   // queue name
			msg,      // routing key
			exchange, // exchange
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %v", queueName, err)
		}
	}

	return nil
}

// PublishMessage sends an envelope to the content exchange under the given
// routing key.
func (r *RabbitMQ) PublishMessage(ctx context.Context, routingKey string, msg contracts.AmqpMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.Channel.PublishWithContext(ctx,
		ContentExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ConsumeMessages drains a queue, acking on handler success and nacking to
// the dead letter exchange on failure.
func (r *RabbitMQ) ConsumeMessages(queueName string, handler func(ctx context.Context, msg amqp.Delivery) error) error {
	deliveries, err := r.Channel.Consume(
		queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %v", queueName, err)
	}

	for d := range deliveries {
		if err := handler(context.Background(), d); err != nil {
			log.Printf("message handler failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}

	return nil
}
