package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Elastic    ElasticsearchConfig
	Delivery   DeliveryConfig
	Production ProductionConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	LockTTLSeconds int
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	DeliveryTopic   string
	ProductionTopic string
	GroupID         string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type DeliveryConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// ProductionConfig drives the oven scheduler.
type ProductionConfig struct {
	OvenCapacityBroas        int
	BakeTimerMinutes         int
	RecentBatchLimit         int
	DispatchPolicy           string // unit, complete
	Timezone                 string
	ReconcileIntervalSeconds int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8086"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_production"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:        getEnvBool("REDIS_ENABLED", true),
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			LockTTLSeconds: getEnvInt("REDIS_LOCK_TTL_SECONDS", 30),
		},
		Kafka: KafkaConfig{
			Enabled:         getEnvBool("KAFKA_ENABLED", true),
			Brokers:         getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			DeliveryTopic:   getEnv("KAFKA_TOPIC_DELIVERY", "delivery.events"),
			ProductionTopic: getEnv("KAFKA_TOPIC_PRODUCTION", "production.events"),
			GroupID:         getEnv("KAFKA_GROUP_PRODUCTION", "production"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Delivery: DeliveryConfig{
			BaseURL:        getEnv("DELIVERY_BASE_URL", "http://localhost:8090/api/delivery"),
			APIKey:         getEnv("DELIVERY_API_KEY", ""),
			TimeoutSeconds: getEnvInt("DELIVERY_TIMEOUT_SECONDS", 5),
		},
		Production: ProductionConfig{
			OvenCapacityBroas:        getEnvInt("OVEN_CAPACITY_BROAS", 60),
			BakeTimerMinutes:         getEnvInt("BAKE_TIMER_MINUTES", 40),
			RecentBatchLimit:         getEnvInt("RECENT_BATCH_LIMIT", 8),
			DispatchPolicy:           getEnv("DISPATCH_POLICY", "unit"),
			Timezone:                 getEnv("PRODUCTION_TIMEZONE", "America/Sao_Paulo"),
			ReconcileIntervalSeconds: getEnvInt("RECONCILE_INTERVAL_SECONDS", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
