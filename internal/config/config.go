package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser  string
	DBPass  string
	DBHost  string
	DBPort  string
	DBName  string
	SSLMode string

	RedisHost string
	RedisPort string

	BusProvider string
	NatsHost    string
	NatsPort    string

	HTTPPort string

	TelegramToken string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	XAIAPIKey  string
	XAIBaseURL string
	XAIModel   string
}

// New loads configuration from environment variables. Most subsystems are
// optional and degrade individually: no bot token means the Telegram
// handlers don't start, no Stripe keys means purchases are disabled, no
// Postgres/Redis means the ledger runs in memory. Only outright invalid
// combinations are errors, not missing ones, so the status page and the
// webhook endpoint stay reachable whatever credentials are absent.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:  os.Getenv("RENDERBOT_POSTGRES_USER"),
		DBPass:  os.Getenv("RENDERBOT_POSTGRES_PASSWORD"),
		DBHost:  os.Getenv("RENDERBOT_POSTGRES_HOST"),
		DBPort:  getEnv("RENDERBOT_POSTGRES_PORT", "5432"),
		DBName:  os.Getenv("RENDERBOT_POSTGRES_DB"),
		SSLMode: getEnv("RENDERBOT_POSTGRES_SSLMODE", "disable"),

		RedisHost: os.Getenv("RENDERBOT_REDIS_HOST"),
		RedisPort: getEnv("RENDERBOT_REDIS_PORT", "6379"),

		BusProvider: getEnv("RENDERBOT_BUS_PROVIDER", "inproc"),
		NatsHost:    os.Getenv("RENDERBOT_NATS_HOST"),
		NatsPort:    getEnv("RENDERBOT_NATS_PORT", "4222"),

		HTTPPort: getEnv("PORT", "3000"),

		TelegramToken: os.Getenv("RENDERBOT_TELEGRAM_TOKEN"),

		StripeSecretKey:     os.Getenv("RENDERBOT_STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("RENDERBOT_STRIPE_WEBHOOK_SECRET"),
		StripeSuccessURL:    getEnv("RENDERBOT_STRIPE_SUCCESS_URL", "https://t.me/RenderBotPro"),
		StripeCancelURL:     getEnv("RENDERBOT_STRIPE_CANCEL_URL", "https://t.me/RenderBotPro"),

		XAIAPIKey:  os.Getenv("RENDERBOT_XAI_API_KEY"),
		XAIBaseURL: getEnv("RENDERBOT_XAI_BASE_URL", "https://api.x.ai"),
		XAIModel:   getEnv("RENDERBOT_XAI_MODEL", "grok-4"),
	}

	if cfg.BusProvider != "nats" && cfg.BusProvider != "inproc" {
		return nil, fmt.Errorf("invalid bus provider %q, must be 'nats' or 'inproc'", cfg.BusProvider)
	}
	if cfg.BusProvider == "nats" && cfg.NatsHost == "" {
		return nil, fmt.Errorf("missing required env for nats bus: RENDERBOT_NATS_HOST")
	}

	// Postgres and Redis come as a pair: the durable ledger needs both.
	if (cfg.DBHost != "") != (cfg.RedisHost != "") {
		return nil, fmt.Errorf("RENDERBOT_POSTGRES_HOST and RENDERBOT_REDIS_HOST must be set together")
	}
	if cfg.StoreEnabled() && (cfg.DBUser == "" || cfg.DBName == "") {
		return nil, fmt.Errorf("missing required env for database: RENDERBOT_POSTGRES_USER/DB")
	}

	// Stripe keys come as a pair too: a webhook secret without an API key
	// (or the reverse) is a misconfiguration, not a degraded mode.
	if (cfg.StripeSecretKey == "") != (cfg.StripeWebhookSecret == "") {
		return nil, fmt.Errorf("RENDERBOT_STRIPE_SECRET_KEY and RENDERBOT_STRIPE_WEBHOOK_SECRET must be set together")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

func (c *Config) HTTPAddr() string {
	return ":" + c.HTTPPort
}

// StoreEnabled reports whether the durable Postgres+Redis ledger is
// configured. When false the service falls back to the in-memory ledger.
func (c *Config) StoreEnabled() bool {
	return c.DBHost != "" && c.RedisHost != ""
}

// BotEnabled reports whether the Telegram gateway can start.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// PaymentsEnabled reports whether Stripe checkout and webhook fulfillment
// are configured.
func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

// VendorEnabled reports whether the image-generation vendor is configured.
func (c *Config) VendorEnabled() bool {
	return c.XAIAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
