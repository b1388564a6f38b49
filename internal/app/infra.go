package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/post-pipeline/config"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	infrakafka "github.com/andreyxaxa/post-pipeline/internal/infrastructure/kafka"
	infrarabbit "github.com/andreyxaxa/post-pipeline/internal/infrastructure/rabbitmq"
	"github.com/andreyxaxa/post-pipeline/internal/repo"
	"github.com/andreyxaxa/post-pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/post-pipeline/pkg/kafka/consumer"
	"github.com/andreyxaxa/post-pipeline/pkg/kafka/producer"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/rabbitmq"
	"github.com/andreyxaxa/post-pipeline/pkg/s3client"
)

// transport is one service's view of the broker: it publishes to any
// queue and consumes exactly one.
type transport struct {
	publisher infrastructure.Publisher
	consumer  infrastructure.Consumer
	close     func() error
}

func newTransport(
	ctx context.Context,
	q config.Queue,
	rmq config.RabbitMQ,
	kf config.Kafka,
	consumeQueue string,
	l logger.Interface,
) (*transport, error) {
	switch q.Driver {
	case config.QueueDriverKafka:
		p, err := producer.New(ctx, kf.Brokers)
		if err != nil {
			return nil, fmt.Errorf("app - newTransport - producer.New: %w", err)
		}

		c, err := consumer.New(ctx, kf.Brokers, kf.GroupID+"-"+consumeQueue, consumeQueue)
		if err != nil {
			_ = p.Close()

			return nil, fmt.Errorf("app - newTransport - consumer.New: %w", err)
		}

		publisher := infrakafka.NewEventProducer(p)

		return &transport{
			publisher: publisher,
			consumer:  infrakafka.NewEventConsumer(c, publisher),
			close:     publisher.Close,
		}, nil
	default:
		conn, err := rabbitmq.New(rmq.URL, l,
			rabbitmq.ConnAttempts(rmq.ConnAttempts),
			rabbitmq.ReconnectDelay(rmq.ReconnectDelay),
		)
		if err != nil {
			return nil, fmt.Errorf("app - newTransport - rabbitmq.New: %w", err)
		}

		publisher := infrarabbit.NewEventPublisher(conn)

		return &transport{
			publisher: publisher,
			consumer:  infrarabbit.NewEventConsumer(conn, consumeQueue, rmq.Prefetch, l),
			close: func() error {
				_ = publisher.Close()

				return conn.Close()
			},
		}, nil
	}
}

// newImageRepo opens one image store: a directory for the fs driver, a
// bucket prefix for s3.
func newImageRepo(ctx context.Context, st config.Storage, s3cfg config.S3, dir, prefix string) (repo.ImageRepo, error) {
	if st.Driver != config.StorageDriverS3 {
		r, err := persistent.NewFileImageRepo(dir)
		if err != nil {
			return nil, fmt.Errorf("app - newImageRepo - persistent.NewFileImageRepo: %w", err)
		}

		return r, nil
	}

	s3Ctx, s3Cancel := context.WithTimeout(ctx, s3cfg.CfgLoadTimeout)
	defer s3Cancel()

	s3c, err := s3client.New(s3Ctx, s3cfg.Endpoint, s3cfg.AccessKey, s3cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("app - newImageRepo - s3client.New: %w", err)
	}

	err = s3c.EnsureBucket(s3Ctx, s3cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("app - newImageRepo - s3c.EnsureBucket: %w", err)
	}

	return persistent.NewS3ImageRepo(s3c, s3cfg.Bucket, prefix), nil
}
