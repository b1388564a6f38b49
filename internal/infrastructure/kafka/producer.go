package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/post-pipeline/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

// EventProducer maps a queue name onto a topic of the same name.
type EventProducer struct {
	*producer.Producer
}

func NewEventProducer(producer *producer.Producer) *EventProducer {
	return &EventProducer{producer}
}

func (ep *EventProducer) Publish(ctx context.Context, queue string, body []byte) error {
	err := ep.Writer.WriteMessages(ctx, kafka.Message{
		Topic: queue,
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("EventProducer - Publish - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
