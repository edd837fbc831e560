package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Checkout CheckoutConfig
	Pricing  models.PricingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port     string
	GRPCPort string
	Env      string
	Name     string
}

type StoreConfig struct {
	// Driver is memory or postgres.
	Driver string
	// SeedOnStart loads the demo catalogue into the memory store.
	SeedOnStart bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	CatalogTTL time.Duration
	SessionTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

type CheckoutConfig struct {
	ShopDeliveryFee decimal.Decimal
	RiderEarning    decimal.Decimal
	CommissionRate  decimal.Decimal
	// CODPending starts cash orders at Pending so the shop has to accept them.
	CODPending bool
}

type LogConfig struct {
	Level string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("SERVER_PORT", "8080"),
			GRPCPort: getEnv("GRPC_PORT", "50051"),
			Env:      getEnv("APP_ENV", "development"),
			Name:     getEnv("SERVICE_NAME", "minidrop"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			SeedOnStart: getEnvAsBool("STORE_SEED", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "minidrop"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		},
		Redis: RedisConfig{
			Enabled:    getEnvAsBool("REDIS_ENABLED", false),
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			CatalogTTL: getEnvAsDuration("REDIS_CATALOG_TTL", 5*time.Minute),
			SessionTTL: getEnvAsDuration("REDIS_SESSION_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKER", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "order_events"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("TRACING_ENABLED", false),
			Endpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "minidrop-dev-secret"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Payment: PaymentConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			Timeout:   getEnvAsDuration("RAZORPAY_TIMEOUT", 10*time.Second),
		},
		Checkout: CheckoutConfig{
			ShopDeliveryFee: getEnvAsDecimal("CHECKOUT_SHOP_DELIVERY_FEE", "15"),
			RiderEarning:    getEnvAsDecimal("RIDER_EARNING_PER_DELIVERY", "40"),
			CommissionRate:  getEnvAsDecimal("PAYOUT_COMMISSION_RATE", "0.10"),
			CODPending:      getEnvAsBool("CHECKOUT_COD_PENDING", false),
		},
		Pricing: models.PricingConfig{
			DeliveryBase:    getEnvAsDecimal("PRICING_DELIVERY_BASE", "15"),
			SurgeMultiplier: getEnvAsDecimal("PRICING_SURGE_MULTIPLIER", "1.5"),
			PlatformFee:     getEnvAsDecimal("PRICING_PLATFORM_FEE", "5"),
			GSTPercent:      getEnvAsDecimal("PRICING_GST_PERCENT", "5"),
			IsSurgeActive:   getEnvAsBool("PRICING_SURGE_ACTIVE", false),
			Version:         1,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or postgres, got %q", c.Store.Driver)
	}
	if c.Checkout.CommissionRate.IsNegative() || c.Checkout.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PAYOUT_COMMISSION_RATE must be between 0 and 1")
	}
	if c.Checkout.ShopDeliveryFee.IsNegative() || c.Checkout.RiderEarning.IsNegative() {
		return fmt.Errorf("checkout fees must not be negative")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "minidrop-dev-secret" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogFields is the non-secret subset logged at startup.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("env", c.Server.Env),
		zap.String("http_port", c.Server.Port),
		zap.String("grpc_port", c.Server.GRPCPort),
		zap.String("store", c.Store.Driver),
		zap.Bool("redis", c.Redis.Enabled),
		zap.Bool("kafka", c.Kafka.Enabled),
		zap.Bool("tracing", c.Tracing.Enabled),
		zap.Bool("payment_mock", c.Payment.KeyID == "" || c.Payment.KeySecret == ""),
		zap.Stringer("shop_delivery_fee", c.Checkout.ShopDeliveryFee),
		zap.Stringer("rider_earning", c.Checkout.RiderEarning),
		zap.Stringer("commission_rate", c.Checkout.CommissionRate),
		zap.Bool("cod_pending", c.Checkout.CODPending),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsDecimal parses money and rates exactly; defaultValue must be valid.
func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
