package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/config"
	"github.com/antoniostano/omnicart/internal/events"
	"github.com/antoniostano/omnicart/internal/httpapi"
	"github.com/antoniostano/omnicart/internal/ids"
	"github.com/antoniostano/omnicart/internal/observability"
	"github.com/antoniostano/omnicart/internal/orchestrator"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/session"
)

// StoreModes reports which backend serves each persistence concern.
type StoreModes struct {
	Orders    string
	Snapshots string
	Events    string
	Notifier  string
}

type BuildResult struct {
	Config       config.Config
	Log          *logrus.Logger
	Catalog      *catalog.Catalog
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *orchestrator.Orchestrator
	Metrics      *observability.Metrics
	Modes        StoreModes

	// Cleanup should be called on shutdown to release external resources (DB, Redis, Kafka).
	Cleanup func() error
}

type Options struct {
	// Worker runs the notification task consumer in-process when a queue is configured.
	Worker bool
}

func Build(ctx context.Context, cfg config.Config, log *logrus.Logger, opts Options) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return nil, errors.Wrap(err, "catalog init failed")
	}

	idGen, err := ids.New(cfg.NodeID)
	if err != nil {
		return nil, errors.Wrap(err, "id generator init failed")
	}

	var closers []func() error
	cleanup := func() error {
		var errs []string
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
		return nil
	}
	fail := func(err error, msg string) (*BuildResult, error) {
		_ = cleanup()
		return nil, errors.Wrap(err, msg)
	}

	orderStore, err := orders.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fail(err, "order store init failed")
	}
	closers = append(closers, orderStore.Close)

	snapshots, err := session.NewSnapshotStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionSnapshotTTL)
	if err != nil {
		return fail(err, "session snapshot store init failed")
	}
	closers = append(closers, snapshots.Close)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	closers = append(closers, publisher.Close)

	notifier := events.NewNotifier(cfg.AsynqRedisAddr, cfg.RedisPassword, cfg.RedisDB)
	closers = append(closers, notifier.Close)

	if opts.Worker && cfg.AsynqRedisAddr != "" {
		stop, err := events.StartWorker(cfg.AsynqRedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			return fail(err, "notification worker init failed")
		}
		closers = append(closers, func() error {
			stop()
			return nil
		})
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout,
		session.WithSnapshots(snapshots),
		session.WithLogger(log),
	)
	sessions.SetExpireHook(func(s *session.State) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
		log.WithFields(logrus.Fields{
			"session_id": s.ID,
			"steps":      s.Steps(),
			"cart_value": s.CartTotal(),
		}).Info("session expired")
	})

	orch := orchestrator.New(orchestrator.Deps{
		Catalog:     cat,
		Orders:      orderStore,
		Publisher:   publisher,
		Notifier:    notifier,
		Metrics:     metrics,
		Log:         log,
		IDs:         idGen,
		FailureRate: cfg.PaymentFailureRate,
		Pricing: orchestrator.Pricing{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			DeliveryFee:           cfg.DeliveryFee,
		},
	})

	api := httpapi.New(cfg, sessions, orch, cat, metrics, log)

	return &BuildResult{
		Config:       cfg,
		Log:          log,
		Catalog:      cat,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orch,
		Metrics:      metrics,
		Modes: StoreModes{
			Orders:    modeOf(cfg.DatabaseURL, "postgres"),
			Snapshots: modeOf(cfg.RedisAddr, "redis"),
			Events:    modeOf(cfg.KafkaBrokers, "kafka"),
			Notifier:  modeOf(cfg.AsynqRedisAddr, "asynq"),
		},
		Cleanup: cleanup,
	}, nil
}

func modeOf(setting, backend string) string {
	if strings.TrimSpace(setting) == "" {
		return "in-memory"
	}
	return backend
}
