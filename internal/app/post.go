package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/post-pipeline/config"
	"github.com/andreyxaxa/post-pipeline/internal/controller/queue"
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi"
	"github.com/andreyxaxa/post-pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/post-pipeline/internal/usecase/engagement"
	"github.com/andreyxaxa/post-pipeline/internal/usecase/post"
	"github.com/andreyxaxa/post-pipeline/pkg/httpserver"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/postgres"
)

// RunPost starts the post service: HTTP API and the result consumer.
func RunPost(cfg *config.Post) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPost - postgres.New: %w", err))
	}
	defer pg.Close()

	// staging
	stagingRepo, err := newImageRepo(ctx, cfg.Storage, cfg.S3, cfg.Storage.StagingDir, cfg.S3.StagingPrefix)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPost - newImageRepo: %w", err))
	}

	// Queue
	tr, err := newTransport(ctx, cfg.Queue, cfg.RabbitMQ, cfg.Kafka, cfg.Queue.ResultQueue, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPost - newTransport: %w", err))
	}

	// Use-Case
	postRepo := persistent.NewPostRepo(pg)

	postUseCase := post.New(
		postRepo,
		stagingRepo,
		tr.publisher,
		cfg.Queue.TaskQueue,
		cfg.Image.BaseURL,
		l,
	)

	engagementUseCase := engagement.New(
		postRepo,
		persistent.NewCommentRepo(pg),
		persistent.NewLikeRepo(pg),
		l,
	)

	// Result consumer
	resultController := queue.New(
		cfg.Queue.ResultQueue,
		tr.consumer,
		queue.NewResultHandler(postUseCase, l),
		l,
		queue.Workers(cfg.Queue.ConsumerWorkers),
		queue.ProcessTimeout(cfg.Queue.ProcessTimeout),
		queue.AckTimeout(cfg.Queue.AckTimeout),
		queue.RetryDelay(cfg.Queue.RetryDelay),
	)

	// HTTP Server
	httpServer := httpserver.New("post-service", l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(int(cfg.Image.MaxFileSize)+1<<20),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	restapi.NewPostRouter(httpServer.App, cfg, postUseCase, engagementUseCase, l)

	// Start Components
	err = resultController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPost - resultController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunPost - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunPost - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunPost - httpServer.Shutdown: %w", err))
	}

	rcShutdownCtx, rcShutdownCancel := context.WithTimeout(ctx, cfg.Queue.ShutdownTimeout)
	defer rcShutdownCancel()
	err = resultController.Shutdown(rcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunPost - resultController.Shutdown: %w", err))
	}

	err = tr.close()
	if err != nil {
		l.Error(fmt.Errorf("app - RunPost - tr.close: %w", err))
	}
}
