package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/antoniostano/omnicart/internal/reliability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	retry  reliability.RetryPolicy
}

// NewPublisher returns a Kafka publisher for a comma-separated broker list, or
// Nop when brokers or topic is empty.
func NewPublisher(brokers, topic string) Publisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 || strings.TrimSpace(topic) == "" {
		return Nop{}
	}
	return NewKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, retry: reliability.DefaultRetryPolicy()}
}

// PublishOrderConfirmed keys the message by order id so every record for one
// order lands on the same partition.
func (p *KafkaPublisher) PublishOrderConfirmed(ctx context.Context, evt OrderConfirmed) error {
	evt.Type = EventOrderConfirmed
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encode order event")
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventOrderConfirmed)},
		},
	}
	err = reliability.Retry(ctx, p.retry, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	return errors.Wrapf(err, "publish %s for %s", EventOrderConfirmed, evt.OrderID)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
