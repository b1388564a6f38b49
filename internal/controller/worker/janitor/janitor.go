package janitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
)

// Janitor periodically removes staged uploads that no task ever consumed.
type Janitor struct {
	worker usecase.ImageWorkerUseCase
	logger logger.Interface

	interval   time.Duration
	runTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(w usecase.ImageWorkerUseCase, l logger.Interface, interval, runTimeout time.Duration) *Janitor {
	return &Janitor{
		worker:     w,
		logger:     l,
		interval:   interval,
		runTimeout: runTimeout,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	if !j.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Janitor - Start - janitor already started")
	}

	if j.interval <= 0 {
		return fmt.Errorf("Janitor - Start - interval must be positive, got %s", j.interval)
	}

	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.ctx.Done():
				return
			case <-ticker.C:
				j.run()
			}
		}
	}()

	return nil
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(j.ctx, j.runTimeout)
	defer cancel()

	err := j.worker.CleanupStaging(ctx)
	if err != nil {
		j.logger.Error(err, "Janitor - run - j.worker.CleanupStaging")
	}
}

func (j *Janitor) Shutdown(ctx context.Context) error {
	if !j.started.Load() || j.cancel == nil {
		return nil
	}

	j.cancel()

	done := make(chan struct{})

	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Janitor - Shutdown: %w", ctx.Err())
	}
}
