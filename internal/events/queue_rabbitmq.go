package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	rabbitRoutingKey = "k.side-effect"
	rabbitPrefetch   = 16
)

// RabbitTopology names the exchanges and queues used for side effects.
type RabbitTopology struct {
	Exchange   string
	Queue      string
	DeadLetter string
}

func (t RabbitTopology) deadLetterExchange() string {
	return t.Exchange + ".dlx"
}

// RabbitQueue publishes tasks to a durable RabbitMQ queue with a dead-letter exchange.
type RabbitQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	topology RabbitTopology
	logger   *zap.Logger

	publishMu sync.Mutex
}

// DialRabbitQueue connects to the broker and declares the topology.
func DialRabbitQueue(url string, topology RabbitTopology, logger *zap.Logger) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := setupTopology(ch, topology); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare rabbitmq topology: %w", err)
	}

	if err := ch.Qos(rabbitPrefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set rabbitmq qos: %w", err)
	}

	return &RabbitQueue{conn: conn, ch: ch, topology: topology, logger: logger}, nil
}

func setupTopology(ch *amqp.Channel, t RabbitTopology) error {
	dlx := t.deadLetterExchange()

	if err := ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(t.DeadLetter, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(t.DeadLetter, rabbitRoutingKey, dlx, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": rabbitRoutingKey,
	}
	if err := ch.ExchangeDeclare(t.Exchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(t.Queue, rabbitRoutingKey, t.Exchange, false, nil)
}

// Publish sends a persistent message for the task.
func (q *RabbitQueue) Publish(ctx context.Context, task Task) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}

	q.publishMu.Lock()
	defer q.publishMu.Unlock()

	return q.ch.PublishWithContext(ctx,
		q.topology.Exchange,
		rabbitRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    task.ID,
			Type:         string(task.Kind),
			Timestamp:    task.EnqueuedAt,
			Body:         body,
		},
	)
}

// Consume acks handled deliveries and nacks failures into the dead-letter queue.
func (q *RabbitQueue) Consume(ctx context.Context, handler TaskHandler) error {
	deliveries, err := q.ch.Consume(q.topology.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register rabbitmq consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			q.handleDelivery(ctx, d, handler)
		}
	}
}

func (q *RabbitQueue) handleDelivery(ctx context.Context, d amqp.Delivery, handler TaskHandler) {
	task, err := decodeTask(d.Body)
	if err != nil {
		q.logger.Error("dropping malformed task", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, task); err != nil {
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Close shuts the channel and connection.
func (q *RabbitQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
