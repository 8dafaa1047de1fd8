package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration, loadable from
// environment variables (TEAHOUSE_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"API server listen address"`
	AdminToken string `usage:"Bearer token for the admin API (TEAHOUSE_ADMIN_TOKEN)" flag:"admin-token"`
	Store      StoreConfig
	Stripe     StripeConfig
	Kafka      KafkaConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// StoreConfig selects and configures the collection backend.
type StoreConfig struct {
	Driver      string `default:"file" usage:"Collection store: file, postgres, redis or memory"`
	Dir         string `default:"data" usage:"Data directory of the file store"`
	DatabaseURL string `usage:"PostgreSQL connection URL (or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis connection URL (or REDIS_URL)" flag:"redis-url"`
	RedisPrefix string `default:"teahouse:collection:" usage:"Redis key prefix"`
}

// StripeConfig holds payment processor credentials. Without a secret key
// payment endpoints, and order placement while VerifyPayments is set,
// answer 502.
type StripeConfig struct {
	SecretKey      string `usage:"Stripe secret key (or STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	WebhookSecret  string `usage:"Stripe webhook signing secret (or STRIPE_WEBHOOK_SECRET)" flag:"stripe-webhook-secret"`
	Currency       string `default:"gbp" usage:"Default payment currency"`
	VerifyPayments bool   `default:"true" usage:"Require a succeeded payment intent for every order" flag:"verify-payments"`
}

// KafkaConfig enables order event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka brokers for order events"`
	Topic   string   `default:"teahouse.orders" usage:"Kafka topic for order events"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env (if present), then environment variables, flags and
// YAML config files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TEAHOUSE",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/teahouse/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing settings required by the selected features.
func (c *Config) Validate() error {
	if c.AdminToken == "" {
		return errors.New("admin token is required: set TEAHOUSE_ADMIN_TOKEN")
	}
	return c.Store.Validate()
}

// Validate checks that the selected driver has its connection settings.
func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverFile, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set TEAHOUSE_STORE_DATABASE_URL or DATABASE_URL")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL is required: set TEAHOUSE_STORE_REDIS_URL or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Driver)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) with standard names to the TEAHOUSE_ settings.
func (c *Config) applyPlatformDefaults() {
	fallback := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fallback(&c.Store.DatabaseURL, "DATABASE_URL")
	fallback(&c.Store.RedisURL, "REDIS_URL")
	fallback(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	fallback(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")

	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
