package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"canteen-connect/internal/logger"
)

// EventHandler processes one live feed event.
type EventHandler func(ctx context.Context, event *OrderCreatedEvent) error

// FeedConsumer subscribes to the orders feed on an exclusive queue. Each
// subscriber (an admin dashboard connection, typically) gets every event.
type FeedConsumer struct {
	conn   *Connection
	logger *logger.Logger
}

func NewFeedConsumer(conn *Connection, log *logger.Logger) *FeedConsumer {
	return &FeedConsumer{conn: conn, logger: log}
}

// Subscribe binds a fresh exclusive queue to the feed exchange and invokes
// handler for every event until ctx is cancelled. Events for other canteens
// are filtered out client-side when canteenID is non-empty.
//
// The subscription runs on its own channel so a slow or abandoned subscriber
// never interferes with publishing; closing it on return cancels the
// consumer and lets the exclusive queue be deleted.
func (c *FeedConsumer) Subscribe(ctx context.Context, canteenID string, handler EventHandler) error {
	ch, err := c.conn.OpenChannel()
	if err != nil {
		return fmt.Errorf("failed to open feed channel: %w", err)
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare(
		"",    // name (server-generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare feed queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, "", OrdersFeedExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind feed queue: %w", err)
	}

	msgs, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer tag
		true,       // auto-ack: feed events are fire-and-forget
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register feed consumer: %w", err)
	}

	c.logger.Info("feed_subscribed", "", "subscribed to live order feed",
		"queue", queue.Name,
		"canteen_id", canteenID,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("feed channel closed")
			}
			c.handleDelivery(ctx, canteenID, d.Body, handler)
		}
	}
}

// handleDelivery decodes one delivery, applies the canteen filter and hands
// the event off. Handler errors are logged, never fatal to the subscription.
func (c *FeedConsumer) handleDelivery(ctx context.Context, canteenID string, body []byte, handler EventHandler) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Error("feed_event_malformed", "", "dropping malformed feed event", err)
		return
	}
	if canteenID != "" && event.CanteenID != canteenID {
		return
	}
	if err := handler(ctx, &event); err != nil {
		c.logger.Error("feed_handler_failed", "", "feed handler returned error", err,
			"order_id", event.OrderID,
		)
	}
}
