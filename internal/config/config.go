package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App struct {
		Name        string `envconfig:"APP_NAME" default:"txflow"`
		Port        int    `envconfig:"PORT" default:"8080"`
		MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"transactions"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
		AllowedOrigins  []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Kafka Kafka

	Antifraud struct {
		MaxTransactionValue  decimal.Decimal `envconfig:"ANTIFRAUD_MAX_TRANSACTION_VALUE" default:"2000"`
		MaxDailyAccumulation decimal.Decimal `envconfig:"ANTIFRAUD_MAX_DAILY_ACCUMULATION" default:"20000"`
		// Optional YAML file overriding the two limits above; reloaded on change.
		LimitsFile string `envconfig:"ANTIFRAUD_LIMITS_FILE"`
	}
}

// Kafka holds broker, topic and delivery settings shared by producers and consumers.
type Kafka struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID"`

	CreatedTopic   string `envconfig:"KAFKA_TRANSACTION_CREATED_TOPIC" default:"transaction-created"`
	ValidatedTopic string `envconfig:"KAFKA_TRANSACTION_VALIDATED_TOPIC" default:"transaction-validated"`

	MessageTimeout    time.Duration `envconfig:"KAFKA_MESSAGE_TIMEOUT" default:"5s"`
	RetryBackoff      time.Duration `envconfig:"KAFKA_RETRY_BACKOFF" default:"100ms"`
	EnableIdempotence bool          `envconfig:"KAFKA_ENABLE_IDEMPOTENCE" default:"true"`

	TopicPartitions  int32 `envconfig:"KAFKA_TOPIC_PARTITIONS" default:"3"`
	TopicReplication int16 `envconfig:"KAFKA_TOPIC_REPLICATION" default:"1"`

	HandlerRetries      int           `envconfig:"KAFKA_HANDLER_RETRIES" default:"0"`
	HandlerRetryBackoff time.Duration `envconfig:"KAFKA_HANDLER_RETRY_BACKOFF" default:"200ms"`
}

// Group returns the configured consumer group, or fallback when none is set.
// Each service passes its own fallback so offsets are tracked independently.
func (k Kafka) Group(fallback string) string {
	if k.GroupID != "" {
		return k.GroupID
	}

	return fallback
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if !cfg.Antifraud.MaxTransactionValue.IsPositive() || !cfg.Antifraud.MaxDailyAccumulation.IsPositive() {
		return nil, fmt.Errorf("antifraud limits must be positive")
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	return &cfg, nil
}
