package queue

import "time"

type Option func(*QueueController)

func Workers(n int) Option {
	return func(c *QueueController) {
		c.workers = n
	}
}

func ProcessTimeout(timeout time.Duration) Option {
	return func(c *QueueController) {
		c.processTimeout = timeout
	}
}

func AckTimeout(timeout time.Duration) Option {
	return func(c *QueueController) {
		c.ackTimeout = timeout
	}
}

func RetryDelay(delay time.Duration) Option {
	return func(c *QueueController) {
		c.retryDelay = delay
	}
}
