package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "agro_sales"
	ExchangeType = "topic"
)

// SaleEvent is the wire shape published when the ledger changes.
type SaleEvent struct {
	Number        string  `json:"number"`
	ClientID      uint    `json:"client_id"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
}

// Publisher emits sale events on a RabbitMQ topic exchange. It is optional:
// a nil *Publisher is a no-op, so the service works without a broker.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials the broker and declares the exchange, retrying briefly to
// survive container startup ordering.
func Connect(url string) (*Publisher, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("could not open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeType, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends the event with routing key sale.<status> (e.g. sale.pending).
func (p *Publisher) Publish(ctx context.Context, ev SaleEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("could not marshal sale event: %w", err)
	}
	routingKey := fmt.Sprintf("sale.%s", ev.Status)
	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
