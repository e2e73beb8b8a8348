package messaging

import (
	"fmt"
	"sync"
	"time"

	"canteen-connect/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// OrdersFeedExchange is the fanout exchange carrying order.created events for
// the live admin feed.
const OrdersFeedExchange = "orders_feed"

// Connection wraps the RabbitMQ connection with retry and reconnection logic.
// The embedded channel is shared by publishers; subscribers open their own
// channel via OpenChannel so a stalled consumer cannot block publishing.
type Connection struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *logger.Logger
	url     string
}

func New(url string, log *logger.Logger) (*Connection, error) {
	c := &Connection{logger: log, url: url}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return c, nil
}

// connect dials with retries. Callers must hold c.mu.
func (c *Connection) connect() error {
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if setupErr := c.setupTopology(); setupErr != nil {
					c.closeLocked()
					err = setupErr
				} else {
					return nil
				}
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			waitTime := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed", "startup",
				fmt.Sprintf("failed to connect to RabbitMQ, retrying in %v", waitTime), err)
			time.Sleep(waitTime)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func (c *Connection) setupTopology() error {
	err := c.channel.ExchangeDeclare(
		OrdersFeedExchange, // name
		"fanout",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersFeedExchange, err)
	}
	return nil
}

// Channel returns the shared publishing channel.
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// OpenChannel opens a dedicated channel on the current connection,
// reconnecting first if needed. The caller owns the channel and must close
// it; closing also cancels any consumer registered on it.
func (c *Connection) OpenChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		c.closeLocked()
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
	return c.conn.Channel()
}

func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed()
}

func (c *Connection) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have reconnected while we waited for the lock
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	c.closeLocked()
	return c.connect()
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
