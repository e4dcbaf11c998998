package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgresStore persists the order ledger in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			customer_id TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			lines JSONB NOT NULL,
			subtotal INTEGER NOT NULL,
			discount INTEGER NOT NULL,
			delivery_fee INTEGER NOT NULL,
			total INTEGER NOT NULL,
			points_earned INTEGER NOT NULL,
			fulfillment TEXT NOT NULL,
			tracking_id TEXT NOT NULL DEFAULT '',
			reservation_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_created ON orders (customer_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "init schema failed on %q", stmt)
		}
	}
	return nil
}

const orderColumns = `id, session_id, customer_id, transaction_id, channel, payment_method, lines,
	subtotal, discount, delivery_fee, total, points_earned, fulfillment, tracking_id, reservation_id, created_at`

func (s *PostgresStore) Save(ctx context.Context, order Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return errors.Wrap(err, "encode order lines")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO NOTHING`,
		order.ID,
		order.SessionID,
		order.CustomerID,
		order.TransactionID,
		order.Channel,
		order.Method,
		lines,
		order.Subtotal,
		order.Discount,
		order.DeliveryFee,
		order.Total,
		order.PointsEarned,
		order.Fulfillment,
		order.TrackingID,
		order.ReservationID,
		order.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save order %s", order.ID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID string) (Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, errors.Wrapf(err, "get order %s", orderID)
	}
	return o, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC LIMIT $2`,
		customerID,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query customer orders")
	}
	defer rows.Close()

	out := make([]Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order row")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order rows")
	}
	return out, nil
}

func (s *PostgresStore) PointsCredited(ctx context.Context, customerID string) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(points_earned), 0) FROM orders WHERE customer_id=$1`,
		customerID,
	).Scan(&total)
	if err != nil {
		return 0, errors.Wrap(err, "sum credited points")
	}
	return total, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o     Order
		lines []byte
	)
	err := row.Scan(&o.ID, &o.SessionID, &o.CustomerID, &o.TransactionID, &o.Channel, &o.Method, &lines,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Total, &o.PointsEarned, &o.Fulfillment,
		&o.TrackingID, &o.ReservationID, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return Order{}, errors.Wrap(err, "decode order lines")
	}
	return o, nil
}
