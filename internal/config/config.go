package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	ProviderStripe  = "stripe"
	ProviderSandbox = "sandbox"
)

// Config is the storefront API configuration.
type Config struct {
	Env             string        `validate:"required"`
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	OrderStore    string `validate:"oneof=mongo postgres"`
	MongoURI      string `validate:"required_if=OrderStore mongo"`
	MongoDatabase string `validate:"required_if=OrderStore mongo"`
	PostgresURL   string `validate:"required_if=OrderStore postgres"`

	// Server-side carts are disabled when RedisAddr is empty.
	RedisAddr string

	// Order events are not published when KafkaBrokers is empty.
	KafkaBrokers      []string
	OrderCreatedTopic string `validate:"required"`

	PaymentProvider string `validate:"oneof=stripe sandbox"`
	StripeSecretKey string `validate:"required_if=PaymentProvider stripe"`
	PaymentCurrency string `validate:"required,len=3"`

	JWTSecret    string `validate:"required"`
	OTLPEndpoint string
}

// WorkerConfig configures the order notification worker.
type WorkerConfig struct {
	Env               string   `validate:"required"`
	KafkaBrokers      []string `validate:"required,min=1"`
	OrderCreatedTopic string   `validate:"required"`
	ConsumerGroup     string   `validate:"required"`
	EmailServiceURL   string   `validate:"required,url"`
	OTLPEndpoint      string
}

var validate = validator.New()

// Load reads the API configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:               getenv("APP_ENV", "development"),
		Port:              getenv("PORT", "8080"),
		ShutdownTimeout:   parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		OrderStore:        getenv("ORDER_STORE", StoreMongo),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDatabase:     getenv("MONGO_DATABASE", "storefront"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderCreatedTopic: getenv("ORDER_CREATED_TOPIC", "order.created"),
		PaymentProvider:   getenv("PAYMENT_PROVIDER", ProviderSandbox),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		PaymentCurrency:   strings.ToLower(getenv("PAYMENT_CURRENCY", "usd")),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func LoadWorker() (*WorkerConfig, error) {
	_ = godotenv.Load()

	cfg := &WorkerConfig{
		Env:               getenv("APP_ENV", "development"),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderCreatedTopic: getenv("ORDER_CREATED_TOPIC", "order.created"),
		ConsumerGroup:     getenv("CONSUMER_GROUP", "notification-worker"),
		EmailServiceURL:   os.Getenv("EMAIL_SERVICE_URL"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
