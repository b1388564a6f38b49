package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	_defaultConnAttempts   = 10
	_defaultConnTimeout    = time.Second
	_defaultReconnectDelay = 2 * time.Second
)

var ErrClosed = errors.New("rabbitmq connection closed")

// Connection owns a single AMQP connection. Channels are opened on demand and
// the connection is re-dialed transparently when the broker drops it.
type Connection struct {
	connAttempts   int
	connTimeout    time.Duration
	reconnectDelay time.Duration

	url    string
	logger logger.Interface

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

func New(url string, l logger.Interface, opts ...Option) (*Connection, error) {
	c := &Connection{
		connAttempts:   _defaultConnAttempts,
		connTimeout:    _defaultConnTimeout,
		reconnectDelay: _defaultReconnectDelay,
		url:            url,
		logger:         l,
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error

	for c.connAttempts > 0 {
		err = c.dial()
		if err == nil {
			break
		}

		c.logger.Warn("RabbitMQ is trying to connect, attempts left: %d, err: %v", c.connAttempts, err)

		time.Sleep(c.connTimeout)

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("RabbitMQ - New - connAttempts == 0: %w", err)
	}

	return c, nil
}

func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("RabbitMQ - dial - amqp.Dial: %w", err)
	}

	c.conn = conn

	return nil
}

// Channel opens a fresh channel, re-dialing until ctx is done if the
// underlying connection was lost.
func (c *Connection) Channel(ctx context.Context) (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.closed {
			return nil, ErrClosed
		}

		if c.conn != nil && !c.conn.IsClosed() {
			ch, err := c.conn.Channel()
			if err == nil {
				return ch, nil
			}
			c.logger.Warn("RabbitMQ - Channel - c.conn.Channel: %v", err)
		}

		err := c.dial()
		if err == nil {
			c.logger.Info("RabbitMQ - Channel - reconnected")
			continue
		}
		c.logger.Warn("RabbitMQ - Channel - reconnect failed: %v", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("RabbitMQ - Channel: %w", ctx.Err())
		case <-time.After(c.reconnectDelay):
		}
	}
}

// DeclareQueue declares a durable, non-exclusive queue on ch.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("RabbitMQ - DeclareQueue - ch.QueueDeclare: %w", err)
	}

	return nil
}

func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed || c.conn == nil || c.conn.IsClosed()
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}

	return nil
}
