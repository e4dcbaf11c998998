package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("order not found")

type Line struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Order is a settled purchase. Amounts are whole rupees.
type Order struct {
	ID            string    `json:"order_id"`
	SessionID     string    `json:"session_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	TransactionID string    `json:"transaction_id"`
	Channel       string    `json:"channel"`
	Method        string    `json:"payment_method"`
	Lines         []Line    `json:"lines"`
	Subtotal      int       `json:"subtotal"`
	Discount      int       `json:"discount"`
	DeliveryFee   int       `json:"delivery_fee"`
	Total         int       `json:"total"`
	PointsEarned  int       `json:"points_earned"`
	Fulfillment   string    `json:"fulfillment"`
	TrackingID    string    `json:"tracking_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the order ledger.
type Store interface {
	Save(ctx context.Context, order Order) error
	Get(ctx context.Context, orderID string) (Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
	// PointsCredited sums points earned across a customer's settled orders.
	PointsCredited(ctx context.Context, customerID string) (int, error)
	Close() error
}
