package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/policy"
)

const (
	TaskOrderNotify   = "order:notify"
	NotificationQueue = "notifications"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type AsynqNotifier struct {
	client enqueuer
}

// NewNotifier returns an asynq-backed notifier, or Nop when redisAddr is empty.
func NewNotifier(redisAddr, password string, db int) Notifier {
	if strings.TrimSpace(redisAddr) == "" {
		return Nop{}
	}
	return NewAsynqNotifier(asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	}))
}

func NewAsynqNotifier(client enqueuer) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

func (n *AsynqNotifier) NotifyOrderConfirmed(ctx context.Context, note Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	task := asynq.NewTask(TaskOrderNotify, payload)
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue(NotificationQueue),
		asynq.MaxRetry(5),
		asynq.TaskID("notify-"+note.OrderID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return errors.Wrapf(err, "enqueue notification for %s", note.OrderID)
}

func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}

// NewNotificationMux routes notification tasks. Delivery to SMS or email
// gateways is out of scope here; the handler records the dispatch.
func NewNotificationMux(log logrus.FieldLogger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOrderNotify, func(ctx context.Context, t *asynq.Task) error {
		return handleOrderNotify(log, t)
	})
	return mux
}

func handleOrderNotify(log logrus.FieldLogger, t *asynq.Task) error {
	var note Notification
	if err := json.Unmarshal(t.Payload(), &note); err != nil {
		return errors.Wrap(asynq.SkipRetry, err.Error())
	}
	log.WithFields(logrus.Fields{
		"order_id":    note.OrderID,
		"customer_id": note.CustomerID,
		"channel":     note.Channel,
		"email":       policy.Redact(note.Email),
		"phone":       policy.Redact(note.Phone),
	}).Info("order confirmation dispatched")
	return nil
}

// StartWorker runs an asynq server for notification tasks and returns its
// shutdown func.
func StartWorker(redisAddr, password string, db int, log logrus.FieldLogger) (func(), error) {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr, Password: password, DB: db}, asynq.Config{
		Concurrency:     4,
		Queues:          map[string]int{NotificationQueue: 1},
		ShutdownTimeout: 5 * time.Second,
		Logger:          log,
	})
	if err := srv.Start(NewNotificationMux(log)); err != nil {
		return nil, errors.Wrap(err, "start notification worker")
	}
	return srv.Shutdown, nil
}
