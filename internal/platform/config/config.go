package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Everything comes from
// H2LEDGER_* environment variables so main stays lean; zero values mean the
// corresponding backend is not configured and the in-memory implementation is
// used instead.
type Config struct {
	Addr string

	// Genesis is the address appointed main_admin at startup.
	Genesis string

	// MintCeiling bounds a single certification's batch size.
	MintCeiling uint64

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig holds SQL store settings.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds settings for the shared certification-hash ledger.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds event relay settings.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
	ConsumerGroup string
}

// DefaultMintCeiling caps the credits minted from one certification.
const DefaultMintCeiling = 1000

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:        getenv("H2LEDGER_ADDR", ":8080"),
		Genesis:     os.Getenv("H2LEDGER_GENESIS_ADMIN"),
		MintCeiling: getenvUint("H2LEDGER_MINT_CEILING", DefaultMintCeiling),
		Postgres: PostgresConfig{
			DSN:          os.Getenv("H2LEDGER_POSTGRES_DSN"),
			MaxOpenConns: int(getenvUint("H2LEDGER_POSTGRES_MAX_OPEN", 10)),
			MaxIdleConns: int(getenvUint("H2LEDGER_POSTGRES_MAX_IDLE", 5)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("H2LEDGER_REDIS_URL"),
			PoolSize:     int(getenvUint("H2LEDGER_REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(getenvUint("H2LEDGER_REDIS_MIN_IDLE", 2)),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:         getenv("H2LEDGER_KAFKA_TOPIC", "h2ledger.events"),
			RelayInterval: 2 * time.Second,
			ConsumerGroup: getenv("H2LEDGER_KAFKA_GROUP", "h2ledger-mirror"),
		},
	}
	if brokers := os.Getenv("H2LEDGER_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
