package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "transaction-created", cfg.Kafka.CreatedTopic)
	assert.Equal(t, "transaction-validated", cfg.Kafka.ValidatedTopic)
	assert.Equal(t, 5*time.Second, cfg.Kafka.MessageTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Kafka.RetryBackoff)
	assert.True(t, cfg.Kafka.EnableIdempotence)
	assert.Equal(t, int32(3), cfg.Kafka.TopicPartitions)
	assert.Equal(t, int16(1), cfg.Kafka.TopicReplication)
	assert.Equal(t, "2000", cfg.Antifraud.MaxTransactionValue.String())
	assert.Equal(t, "20000", cfg.Antifraud.MaxDailyAccumulation.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KAFKA_TRANSACTION_CREATED_TOPIC", "tx.created")
	t.Setenv("KAFKA_ENABLE_IDEMPOTENCE", "false")
	t.Setenv("ANTIFRAUD_MAX_TRANSACTION_VALUE", "1500.50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "tx.created", cfg.Kafka.CreatedTopic)
	assert.False(t, cfg.Kafka.EnableIdempotence)
	assert.Equal(t, "1500.5", cfg.Antifraud.MaxTransactionValue.String())
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("ANTIFRAUD_MAX_DAILY_ACCUMULATION", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestKafka_Group(t *testing.T) {
	k := config.Kafka{}
	assert.Equal(t, "antifraud", k.Group("antifraud"))

	k.GroupID = "custom"
	assert.Equal(t, "custom", k.Group("antifraud"))
}

func TestConnectionString(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.User = "u"
	cfg.DB.Password = "p"
	cfg.DB.Host = "db"
	cfg.DB.Port = 5433
	cfg.DB.Name = "tx"

	assert.Equal(t, "postgres://u:p@db:5433/tx?sslmode=disable", cfg.ConnectionString())
}
