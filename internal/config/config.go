package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config contains all runtime settings for the shopping assistant service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int

	CatalogPath string
	DatabaseURL string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionSnapshotTTL time.Duration

	KafkaBrokers    string
	KafkaOrderTopic string
	AsynqRedisAddr  string

	NodeID             int64
	PaymentFailureRate float64

	FreeShippingThreshold int
	DeliveryFee           int
	DefaultChannel        string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "omnicart"),
		LogLevel:         strings.ToLower(envOrDefault("APP_LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envOrDefault("APP_LOG_FORMAT", "text")),
		CatalogPath:      stringsTrimSpace("CATALOG_PATH"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		RedisAddr:        stringsTrimSpace("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:     stringsTrimSpace("KAFKA_BROKERS"),
		KafkaOrderTopic:  envOrDefault("KAFKA_ORDER_TOPIC", "orders.confirmed"),
		DefaultChannel:   strings.ToLower(envOrDefault("DEFAULT_CHANNEL", "web")),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		SessionSnapshotTTL:       24 * time.Hour,
		RateLimitRPS:             10,
		RateLimitBurst:           20,
		NodeID:                   1,
		PaymentFailureRate:       0.2,
		FreeShippingThreshold:    1999,
		DeliveryFee:              99,
	}
	// The notification queue shares the snapshot Redis unless told otherwise.
	cfg.AsynqRedisAddr = envOrDefault("ASYNQ_REDIS_ADDR", cfg.RedisAddr)

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionSnapshotTTL, err = durationFromEnv("SESSION_SNAPSHOT_TTL", cfg.SessionSnapshotTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitRPS, err = floatFromEnv("APP_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitBurst, err = intFromEnv("APP_RATE_LIMIT_BURST", cfg.RateLimitBurst)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB, err = intFromEnv("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, err
	}
	nodeID, err := intFromEnv("NODE_ID", int(cfg.NodeID))
	if err != nil {
		return Config{}, err
	}
	cfg.NodeID = int64(nodeID)
	cfg.PaymentFailureRate, err = floatFromEnv("PAYMENT_FAILURE_RATE", cfg.PaymentFailureRate)
	if err != nil {
		return Config{}, err
	}
	cfg.FreeShippingThreshold, err = intFromEnv("FREE_SHIPPING_THRESHOLD", cfg.FreeShippingThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.DeliveryFee, err = intFromEnv("DELIVERY_FEE", cfg.DeliveryFee)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, errors.New("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, errors.New("APP_RATE_LIMIT_RPS and APP_RATE_LIMIT_BURST must be positive")
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return Config{}, errors.New("NODE_ID must be between 0 and 1023")
	}
	if cfg.PaymentFailureRate < 0 || cfg.PaymentFailureRate > 1 {
		return Config{}, errors.New("PAYMENT_FAILURE_RATE must be between 0 and 1")
	}
	if cfg.FreeShippingThreshold < 0 || cfg.DeliveryFee < 0 {
		return Config{}, errors.New("FREE_SHIPPING_THRESHOLD and DELIVERY_FEE must be >= 0")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, errors.Errorf("APP_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, errors.Wrap(err, "APP_LOG_LEVEL")
	}

	return cfg, nil
}

// NewLogger builds the process logger from the log settings.
func (c Config) NewLogger() (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s parse error", key)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s parse error", key)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s parse error", key)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, errors.Errorf("%s parse error: expected bool", key)
	}
}
