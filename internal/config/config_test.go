package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.BindAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionInactivityTimeout)
	assert.Equal(t, "omnicart", cfg.MetricsNamespace)
	assert.Equal(t, "orders.confirmed", cfg.KafkaOrderTopic)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.Equal(t, 0.2, cfg.PaymentFailureRate)
	assert.Equal(t, 1999, cfg.FreeShippingThreshold)
	assert.Equal(t, 99, cfg.DeliveryFee)
	assert.Equal(t, "web", cfg.DefaultChannel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.AsynqRedisAddr)
}

func TestLoadAsynqFallsBackToRedisAddr(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("REDIS_ADDR", " localhost:6379 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "localhost:6379", cfg.AsynqRedisAddr)

	t.Setenv("ASYNQ_REDIS_ADDR", "queue:6379")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "queue:6379", cfg.AsynqRedisAddr)
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "90s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")
	t.Setenv("APP_RATE_LIMIT_RPS", "2.5")
	t.Setenv("NODE_ID", "42")
	t.Setenv("PAYMENT_FAILURE_RATE", "0")
	t.Setenv("APP_LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.SessionInactivityTimeout)
	assert.True(t, cfg.AllowAnyOrigin)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, int64(42), cfg.NodeID)
	assert.Equal(t, 0.0, cfg.PaymentFailureRate)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"APP_SESSION_INACTIVITY_TIMEOUT": "1s",
		"APP_SHUTDOWN_TIMEOUT":           "soon",
		"APP_ALLOW_ANY_ORIGIN":           "maybe",
		"NODE_ID":                        "2048",
		"PAYMENT_FAILURE_RATE":           "1.5",
		"APP_LOG_FORMAT":                 "xml",
		"APP_LOG_LEVEL":                  "loud",
		"APP_RATE_LIMIT_BURST":           "0",
		"DELIVERY_FEE":                   "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	log, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_LOG_LEVEL",
		"APP_LOG_FORMAT",
		"APP_RATE_LIMIT_RPS",
		"APP_RATE_LIMIT_BURST",
		"CATALOG_PATH",
		"DATABASE_URL",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"SESSION_SNAPSHOT_TTL",
		"KAFKA_BROKERS",
		"KAFKA_ORDER_TOPIC",
		"ASYNQ_REDIS_ADDR",
		"NODE_ID",
		"PAYMENT_FAILURE_RATE",
		"FREE_SHIPPING_THRESHOLD",
		"DELIVERY_FEE",
		"DEFAULT_CHANNEL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
