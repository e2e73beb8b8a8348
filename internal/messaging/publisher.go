package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// OrderCreatedEvent is the wire shape of a live feed event. Gateway
// identifiers intentionally stay out of it.
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	CanteenID   string    `json:"canteen_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher announces freshly persisted orders to the live feed exchange.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{conn: conn, logger: log}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	event := OrderCreatedEvent{
		OrderID:     order.ID.String(),
		CanteenID:   order.CanteenID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status.String(),
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}

	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		publishCtx,
		OrdersFeedExchange, // exchange
		"",                 // routing key (ignored for fanout)
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Transient,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug("order_event_published", "", "published order.created to live feed",
		"order_id", event.OrderID,
		"canteen_id", event.CanteenID,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
