package rabbitmq

import "time"

type Option func(*Connection)

func ConnAttempts(attempts int) Option {
	return func(c *Connection) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Connection) {
		c.connTimeout = timeout
	}
}

func ReconnectDelay(delay time.Duration) Option {
	return func(c *Connection) {
		c.reconnectDelay = delay
	}
}
