package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlement struct {
	acked    bool
	nacked   bool
	requeued bool
}

type fakeDelivery struct {
	body []byte

	mu      sync.Mutex
	outcome settlement
	done    chan struct{}
}

func newFakeDelivery(body string) *fakeDelivery {
	return &fakeDelivery{body: []byte(body), done: make(chan struct{})}
}

func (d *fakeDelivery) Body() []byte { return d.body }

func (d *fakeDelivery) Ack(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcome.acked = true
	close(d.done)

	return nil
}

func (d *fakeDelivery) Nack(_ context.Context, requeue bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcome.nacked = true
	d.outcome.requeued = requeue
	close(d.done)

	return nil
}

func (d *fakeDelivery) wait(t *testing.T) settlement {
	t.Helper()

	select {
	case <-d.done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery was never settled")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.outcome
}

type fakeConsumer struct {
	deliveries chan infrastructure.Delivery
	closed     atomic.Bool
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{deliveries: make(chan infrastructure.Delivery, 16)}
}

func (c *fakeConsumer) ReadDelivery(ctx context.Context) (infrastructure.Delivery, error) {
	select {
	case d := <-c.deliveries:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConsumer) Close() error {
	c.closed.Store(true)

	return nil
}

func startController(t *testing.T, c infrastructure.Consumer, h Handler) *QueueController {
	t.Helper()

	qc := New("test", c, h, logger.Nop(), Workers(2), RetryDelay(0), ProcessTimeout(time.Second))
	require.NoError(t, qc.Start(context.Background()))

	t.Cleanup(func() {
		_ = qc.Shutdown(context.Background())
	})

	return qc
}

func TestControllerAcksHandledMessage(t *testing.T) {
	consumer := newFakeConsumer()

	var got atomic.Value
	startController(t, consumer, HandlerFunc(func(_ context.Context, body []byte) error {
		got.Store(string(body))

		return nil
	}))

	d := newFakeDelivery(`{"a":1}`)
	consumer.deliveries <- d

	out := d.wait(t)
	assert.True(t, out.acked)
	assert.False(t, out.nacked)
	assert.Equal(t, `{"a":1}`, got.Load())
}

func TestControllerRequeuesOnError(t *testing.T) {
	consumer := newFakeConsumer()

	startController(t, consumer, HandlerFunc(func(context.Context, []byte) error {
		return errors.New("db down")
	}))

	d := newFakeDelivery("x")
	consumer.deliveries <- d

	out := d.wait(t)
	assert.False(t, out.acked)
	assert.True(t, out.nacked)
	assert.True(t, out.requeued)
}

func TestControllerDropsOnPanic(t *testing.T) {
	consumer := newFakeConsumer()

	startController(t, consumer, HandlerFunc(func(context.Context, []byte) error {
		panic("boom")
	}))

	d := newFakeDelivery("x")
	consumer.deliveries <- d

	out := d.wait(t)
	assert.True(t, out.nacked)
	assert.False(t, out.requeued)
}

func TestControllerStartTwice(t *testing.T) {
	qc := startController(t, newFakeConsumer(), HandlerFunc(func(context.Context, []byte) error { return nil }))

	assert.Error(t, qc.Start(context.Background()))
}

func TestControllerShutdownClosesConsumer(t *testing.T) {
	consumer := newFakeConsumer()
	qc := New("test", consumer, HandlerFunc(func(context.Context, []byte) error { return nil }), logger.Nop())

	require.NoError(t, qc.Shutdown(context.Background()))
	assert.False(t, consumer.closed.Load())

	require.NoError(t, qc.Start(context.Background()))
	require.NoError(t, qc.Shutdown(context.Background()))
	assert.True(t, consumer.closed.Load())
}
