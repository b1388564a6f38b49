package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventConsumer reads one durable queue with manual acknowledgment. When the
// broker connection drops it re-subscribes on the next ReadDelivery call;
// unacked deliveries of the old channel are redelivered by the broker.
type EventConsumer struct {
	conn     *rabbitmq.Connection
	queue    string
	prefetch int
	logger   logger.Interface

	mu         sync.Mutex
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func NewEventConsumer(conn *rabbitmq.Connection, queue string, prefetch int, l logger.Interface) *EventConsumer {
	return &EventConsumer{
		conn:     conn,
		queue:    queue,
		prefetch: prefetch,
		logger:   l,
	}
}

func (c *EventConsumer) ReadDelivery(ctx context.Context) (infrastructure.Delivery, error) {
	for {
		deliveries, err := c.subscription(ctx)
		if err != nil {
			return nil, fmt.Errorf("EventConsumer - ReadDelivery - c.subscription: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("EventConsumer - ReadDelivery: %w", ctx.Err())
		case d, ok := <-deliveries:
			if ok {
				return &delivery{d: d}, nil
			}

			c.logger.Warn("EventConsumer - ReadDelivery - queue %s: delivery channel closed, resubscribing", c.queue)
			c.reset()
		}
	}
}

func (c *EventConsumer) subscription(ctx context.Context) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deliveries != nil {
		return c.deliveries, nil
	}

	ch, err := c.conn.Channel(ctx)
	if err != nil {
		return nil, fmt.Errorf("EventConsumer - subscription - c.conn.Channel: %w", err)
	}

	err = rabbitmq.DeclareQueue(ch, c.queue)
	if err != nil {
		ch.Close()

		return nil, fmt.Errorf("EventConsumer - subscription - rabbitmq.DeclareQueue: %w", err)
	}

	err = ch.Qos(
		c.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		ch.Close()

		return nil, fmt.Errorf("EventConsumer - subscription - ch.Qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		ch.Close()

		return nil, fmt.Errorf("EventConsumer - subscription - ch.Consume: %w", err)
	}

	c.ch = ch
	c.deliveries = deliveries

	return deliveries, nil
}

func (c *EventConsumer) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		_ = c.ch.Close()
	}
	c.ch = nil
	c.deliveries = nil
}

func (c *EventConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch == nil {
		return nil
	}

	err := c.ch.Close()
	c.ch = nil
	c.deliveries = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}

type delivery struct {
	d amqp.Delivery
}

func (d *delivery) Body() []byte {
	return d.d.Body
}

func (d *delivery) Ack(_ context.Context) error {
	err := d.d.Ack(false)
	if err != nil {
		return fmt.Errorf("delivery - Ack: %w", err)
	}

	return nil
}

func (d *delivery) Nack(_ context.Context, requeue bool) error {
	err := d.d.Nack(false, requeue)
	if err != nil {
		return fmt.Errorf("delivery - Nack: %w", err)
	}

	return nil
}
