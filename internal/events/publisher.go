// Package events announces placed orders on a topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"orderup/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrdersExchange is the topic exchange order events are published to.
const OrdersExchange = "orders_topic"

// OrderPlaced is the body of an order.placed.<method> message.
type OrderPlaced struct {
	OrderID       string               `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	Reference     string               `json:"reference"`
	CustomerID    *string              `json:"customerId,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	PaymentStatus string               `json:"paymentStatus,omitempty"`
	ItemCount     int                  `json:"itemCount"`
	Total         domain.Money         `json:"total"`
	Currency      string               `json:"currency"`
	ArrivalMins   int                  `json:"arrivalMinutes"`
	PlacedAt      time.Time            `json:"placedAt"`
}

// RoutingKey is the topic routing key for the event.
func (e OrderPlaced) RoutingKey() string {
	return "order.placed." + string(e.PaymentMethod)
}

// NewOrderPlaced builds the event for a confirmed order.
func NewOrderPlaced(o domain.Order) OrderPlaced {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return OrderPlaced{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Reference:     o.Reference,
		CustomerID:    o.CustomerID,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		ItemCount:     n,
		Total:         o.Total,
		Currency:      o.Currency,
		ArrivalMins:   o.Delivery.ArrivalMinutes,
		PlacedAt:      o.UpdatedAt,
	}
}

// Publisher sends order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlaced) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to OrdersExchange.
type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// Dial connects to url and declares the exchange.
func Dial(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", OrdersExchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, logger: logger}, nil
}

func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, e OrderPlaced) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, OrdersExchange, e.RoutingKey(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    e.Reference,
		Body:         body,
	})
	if err != nil {
		p.logger.Error("events: publish", zap.String("routing_key", e.RoutingKey()), zap.String("order_id", e.OrderID), zap.Error(err))
		return err
	}
	p.logger.Debug("events: published", zap.String("routing_key", e.RoutingKey()), zap.String("order_id", e.OrderID))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
