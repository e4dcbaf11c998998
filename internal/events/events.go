// Package events carries settled orders out of the process: an order.confirmed
// record on Kafka and a confirmation notification task on asynq. Both are
// best-effort; callers log failures and move on.
package events

import (
	"context"
	"time"
)

const EventOrderConfirmed = "order.confirmed"

type OrderLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"unit_price"`
}

type OrderConfirmed struct {
	Type          string      `json:"type"`
	OrderID       string      `json:"order_id"`
	SessionID     string      `json:"session_id"`
	CustomerID    string      `json:"customer_id,omitempty"`
	TransactionID string      `json:"transaction_id"`
	Channel       string      `json:"channel"`
	Method        string      `json:"payment_method"`
	Total         int         `json:"total"`
	PointsEarned  int         `json:"points_earned"`
	Fulfillment   string      `json:"fulfillment"`
	Lines         []OrderLine `json:"lines"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Notification asks a worker to tell the customer their order is confirmed.
type Notification struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Channel    string `json:"channel"`
	Message    string `json:"message"`
}

type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, evt OrderConfirmed) error
	Close() error
}

type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, n Notification) error
	Close() error
}

// Nop discards everything. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderConfirmed(context.Context, OrderConfirmed) error { return nil }
func (Nop) NotifyOrderConfirmed(context.Context, Notification) error     { return nil }
func (Nop) Close() error                                                 { return nil }
