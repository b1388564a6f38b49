package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
)

const (
	_defaultWorkers        = 4
	_defaultProcessTimeout = 60 * time.Second
	_defaultAckTimeout     = 5 * time.Second
	_defaultRetryDelay     = 5 * time.Second
)

// Handler processes one message body. A nil error acknowledges the
// delivery, any error sends it back to the queue after the retry delay.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

type HandlerFunc func(ctx context.Context, body []byte) error

func (f HandlerFunc) Handle(ctx context.Context, body []byte) error {
	return f(ctx, body)
}

type QueueController struct {
	name     string
	consumer infrastructure.Consumer
	handler  Handler
	logger   logger.Interface

	workers        int
	processTimeout time.Duration
	ackTimeout     time.Duration
	retryDelay     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(name string, c infrastructure.Consumer, h Handler, l logger.Interface, opts ...Option) *QueueController {
	qc := &QueueController{
		name:           name,
		consumer:       c,
		handler:        h,
		logger:         l,
		workers:        _defaultWorkers,
		processTimeout: _defaultProcessTimeout,
		ackTimeout:     _defaultAckTimeout,
		retryDelay:     _defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(qc)
	}

	if qc.workers < 1 {
		qc.workers = 1
	}

	return qc
}

func (c *QueueController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("QueueController - Start - %s: controller already started", c.name)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	deliveries := make(chan infrastructure.Delivery, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(deliveries)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(deliveries)

		for {
			d, err := c.consumer.ReadDelivery(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				c.logger.Error(err, "QueueController - Start - %s: c.consumer.ReadDelivery", c.name)

				if !c.sleep(c.retryDelay) {
					return
				}
				continue
			}

			select {
			case deliveries <- d:
			case <-c.ctx.Done():
				// not acked, the broker hands it out again
				return
			}
		}
	}()

	c.logger.Info("QueueController - %s: consuming with %d workers", c.name, c.workers)

	return nil
}

func (c *QueueController) worker(deliveries <-chan infrastructure.Delivery) {
	defer c.wg.Done()

	for d := range deliveries {
		c.handle(d)
	}
}

func (c *QueueController) handle(d infrastructure.Delivery) {
	// in-flight messages finish on shutdown, bounded by processTimeout
	base := context.WithoutCancel(c.ctx)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic %v", r), "QueueController - handle - %s: panic, message dropped", c.name)

			c.settle(base, d, false)
		}
	}()

	processCtx, processCancel := context.WithTimeout(base, c.processTimeout)
	err := c.handler.Handle(processCtx, d.Body())
	processCancel()

	if err != nil {
		c.logger.Error(err, "QueueController - handle - %s: c.handler.Handle, requeue in %s", c.name, c.retryDelay)

		c.sleep(c.retryDelay)
		c.settle(base, d, true)

		return
	}

	ackCtx, ackCancel := context.WithTimeout(base, c.ackTimeout)
	defer ackCancel()

	err = d.Ack(ackCtx)
	if err != nil {
		c.logger.Error(err, "QueueController - handle - %s: d.Ack", c.name)
	}
}

func (c *QueueController) settle(base context.Context, d infrastructure.Delivery, requeue bool) {
	ctx, cancel := context.WithTimeout(base, c.ackTimeout)
	defer cancel()

	err := d.Nack(ctx, requeue)
	if err != nil {
		c.logger.Error(err, "QueueController - settle - %s: d.Nack", c.name)
	}
}

// sleep waits for d or until the controller stops. It reports whether the
// full delay elapsed.
func (c *QueueController) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *QueueController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("QueueController - Shutdown - %s: in-flight messages abandoned", c.name)
	}

	err := c.consumer.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("QueueController - Shutdown - %s: c.consumer.Close: %w", c.name, err)
	}

	return nil
}
