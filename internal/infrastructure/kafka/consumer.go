package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// EventConsumer reads a consumer-group topic with explicit commits. Kafka
// has no per-message requeue, so Nack(requeue=true) appends a copy of the
// message to the topic's tail before committing the original.
type EventConsumer struct {
	*consumer.Consumer
	requeue infrastructure.Publisher
}

func NewEventConsumer(consumer *consumer.Consumer, requeue infrastructure.Publisher) *EventConsumer {
	return &EventConsumer{consumer, requeue}
}

func (ec *EventConsumer) ReadDelivery(ctx context.Context) (infrastructure.Delivery, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("EventConsumer - ReadDelivery - ec.Reader.FetchMessage: %w", err)
	}

	return &delivery{msg: msg, ec: ec}, nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}

type delivery struct {
	msg kafka.Message
	ec  *EventConsumer
}

func (d *delivery) Body() []byte {
	return d.msg.Value
}

func (d *delivery) Ack(ctx context.Context) error {
	err := d.ec.Reader.CommitMessages(ctx, d.msg)
	if err != nil {
		return fmt.Errorf("delivery - Ack - d.ec.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (d *delivery) Nack(ctx context.Context, requeue bool) error {
	if requeue {
		err := d.ec.requeue.Publish(ctx, d.msg.Topic, d.msg.Value)
		if err != nil {
			// not committed: the group redelivers it after a restart or rebalance
			return fmt.Errorf("delivery - Nack - d.ec.requeue.Publish: %w", err)
		}
	}

	err := d.ec.Reader.CommitMessages(ctx, d.msg)
	if err != nil {
		return fmt.Errorf("delivery - Nack - d.ec.Reader.CommitMessages: %w", err)
	}

	return nil
}
