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
	"github.com/andreyxaxa/post-pipeline/internal/controller/worker/janitor"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure/processor"
	"github.com/andreyxaxa/post-pipeline/internal/usecase/imageworker"
	"github.com/andreyxaxa/post-pipeline/pkg/httpserver"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
)

// RunWorker starts the image worker: task consumer, processed-image
// server and staging janitor.
func RunWorker(cfg *config.Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository
	stagingRepo, err := newImageRepo(ctx, cfg.Storage, cfg.S3, cfg.Storage.StagingDir, cfg.S3.StagingPrefix)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - newImageRepo(staging): %w", err))
	}

	processedRepo, err := newImageRepo(ctx, cfg.Storage, cfg.S3, cfg.Storage.ProcessedDir, cfg.S3.ProcessedPrefix)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - newImageRepo(processed): %w", err))
	}

	// Queue
	tr, err := newTransport(ctx, cfg.Queue, cfg.RabbitMQ, cfg.Kafka, cfg.Queue.TaskQueue, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - newTransport: %w", err))
	}

	// Use-Case
	workerUseCase := imageworker.New(
		stagingRepo,
		processedRepo,
		processor.New(),
		l,
		imageworker.MaxWidth(cfg.Image.MaxWidth),
		imageworker.PublicPrefix(cfg.Image.PublicPrefix),
		imageworker.StagingTTL(cfg.Janitor.StagingTTL),
	)

	// Task consumer
	taskController := queue.New(
		cfg.Queue.TaskQueue,
		tr.consumer,
		queue.NewTaskHandler(workerUseCase, tr.publisher, cfg.Queue.ResultQueue, l),
		l,
		queue.Workers(cfg.Queue.ConsumerWorkers),
		queue.ProcessTimeout(cfg.Queue.ProcessTimeout),
		queue.AckTimeout(cfg.Queue.AckTimeout),
		queue.RetryDelay(cfg.Queue.RetryDelay),
	)

	// Staging janitor
	stagingJanitor := janitor.New(workerUseCase, l, cfg.Janitor.Interval, cfg.Janitor.RunTimeout)

	// HTTP Server
	httpServer := httpserver.New("image-worker", l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	restapi.NewWorkerRouter(httpServer.App, cfg, workerUseCase, l)

	// Start Components
	err = stagingJanitor.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - stagingJanitor.Start: %w", err))
	}
	err = taskController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - taskController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunWorker - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunWorker - httpServer.Notify: %w", err))
	}

	// Shutdown
	tcShutdownCtx, tcShutdownCancel := context.WithTimeout(ctx, cfg.Queue.ShutdownTimeout)
	defer tcShutdownCancel()
	err = taskController.Shutdown(tcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunWorker - taskController.Shutdown: %w", err))
	}

	jShutdownCtx, jShutdownCancel := context.WithTimeout(ctx, cfg.Janitor.ShutdownTimeout)
	defer jShutdownCancel()
	err = stagingJanitor.Shutdown(jShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunWorker - stagingJanitor.Shutdown: %w", err))
	}

	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunWorker - httpServer.Shutdown: %w", err))
	}

	err = tr.close()
	if err != nil {
		l.Error(fmt.Errorf("app - RunWorker - tr.close: %w", err))
	}
}
