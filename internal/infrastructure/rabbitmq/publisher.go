package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andreyxaxa/post-pipeline/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

var errNotConfirmed = errors.New("publish not confirmed by broker")

// EventPublisher publishes persistent messages on a confirm-mode channel and
// waits for the broker ack before returning.
type EventPublisher struct {
	conn *rabbitmq.Connection

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

func NewEventPublisher(conn *rabbitmq.Connection) *EventPublisher {
	return &EventPublisher{
		conn:     conn,
		declared: make(map[string]bool),
	}
}

func (p *EventPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.publish(ctx, queue, body)
	if err == nil {
		return nil
	}

	// the channel may have died with the connection, retry once on a fresh one
	p.resetChannel()

	err = p.publish(ctx, queue, body)
	if err != nil {
		return fmt.Errorf("EventPublisher - Publish: %w", err)
	}

	return nil
}

func (p *EventPublisher) publish(ctx context.Context, queue string, body []byte) error {
	ch, err := p.channel(ctx)
	if err != nil {
		return fmt.Errorf("EventPublisher - publish - p.channel: %w", err)
	}

	if !p.declared[queue] {
		err = rabbitmq.DeclareQueue(ch, queue)
		if err != nil {
			return fmt.Errorf("EventPublisher - publish - rabbitmq.DeclareQueue: %w", err)
		}
		p.declared[queue] = true
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("EventPublisher - publish - ch.PublishWithDeferredConfirmWithContext: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("EventPublisher - publish - confirm.WaitContext: %w", err)
	}
	if !acked {
		return fmt.Errorf("EventPublisher - publish: %w", errNotConfirmed)
	}

	return nil
}

func (p *EventPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel(ctx)
	if err != nil {
		return nil, fmt.Errorf("EventPublisher - channel - p.conn.Channel: %w", err)
	}

	err = ch.Confirm(false)
	if err != nil {
		ch.Close()

		return nil, fmt.Errorf("EventPublisher - channel - ch.Confirm: %w", err)
	}

	p.ch = ch
	p.declared = make(map[string]bool)

	return ch, nil
}

func (p *EventPublisher) resetChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = nil
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return nil
	}

	err := p.ch.Close()
	p.ch = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("EventPublisher - Close: %w", err)
	}

	return nil
}
