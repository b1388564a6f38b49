package infrastructure

import (
	"context"
)

type (
	// Delivery is one message handed out by a Consumer. It stays eligible
	// for redelivery until Ack is called.
	Delivery interface {
		Body() []byte
		Ack(ctx context.Context) error
		Nack(ctx context.Context, requeue bool) error
	}

	// Publisher returns once the broker has accepted the message.
	Publisher interface {
		Publish(ctx context.Context, queue string, body []byte) error
		Close() error
	}

	Consumer interface {
		ReadDelivery(ctx context.Context) (Delivery, error)
		Close() error
	}

	ImageProcessor interface {
		Width(ext string, data []byte) (int, error)
		ResizeToWidth(ctx context.Context, ext string, data []byte, width int) ([]byte, error)
	}
)
