// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// ExchangesConfig holds exchange source settings.
type ExchangesConfig struct {
	Names             []string      `mapstructure:"names"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	InitTimeout       time.Duration `mapstructure:"init_timeout"`
}

// ScannerConfig holds arbitrage scan settings.
type ScannerConfig struct {
	Assets            []string      `mapstructure:"assets"`
	QuoteCurrency     string        `mapstructure:"quote_currency"`
	MinVolume         float64       `mapstructure:"min_volume"`
	MinProfitPct      float64       `mapstructure:"min_profit_pct"`
	DefaultInvestment float64       `mapstructure:"default_investment"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
}

// MinVolumeDecimal returns the liquidity floor as decimal.Decimal.
func (c *ScannerConfig) MinVolumeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinVolume)
}

// MinProfitPctDecimal returns the profitability threshold as decimal.Decimal.
func (c *ScannerConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPct)
}

// DefaultInvestmentDecimal returns the fallback investment as decimal.Decimal.
func (c *ScannerConfig) DefaultInvestmentDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultInvestment)
}

// CacheConfig holds cache backend settings.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory" or "redis"
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Exchanges
	v.BindEnv("exchanges.names", "ARB_EXCHANGES")
	v.BindEnv("exchanges.fetch_timeout", "ARB_FETCH_TIMEOUT")
	v.BindEnv("exchanges.init_timeout", "ARB_INIT_TIMEOUT")

	// Scanner
	v.BindEnv("scanner.assets", "ARB_ASSETS")
	v.BindEnv("scanner.min_volume", "ARB_MIN_VOLUME")
	v.BindEnv("scanner.min_profit_pct", "ARB_MIN_PROFIT_PCT")
	v.BindEnv("scanner.refresh_interval", "ARB_REFRESH_INTERVAL")

	// Cache
	v.BindEnv("cache.backend", "ARB_CACHE_BACKEND")
	v.BindEnv("cache.ttl", "ARB_CACHE_TTL")
	v.BindEnv("cache.redis_addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("cache.redis_password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbitrack")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	// Exchange defaults
	v.SetDefault("exchanges.names", []string{
		"binance", "bybit", "okx", "kraken", "kucoin", "gateio",
	})
	v.SetDefault("exchanges.requests_per_minute", 120)
	v.SetDefault("exchanges.fetch_timeout", "30s")
	v.SetDefault("exchanges.init_timeout", "30s")

	// Scanner defaults
	v.SetDefault("scanner.assets", []string{
		"BTC", "ETH", "XRP", "ADA", "DOT", "SOL", "DOGE", "SHIB", "LTC", "LINK",
		"MATIC", "AVAX", "XLM", "UNI", "BCH", "FIL", "VET", "ALGO", "ATOM", "ICP",
	})
	v.SetDefault("scanner.quote_currency", "USDT")
	v.SetDefault("scanner.min_volume", 200000)
	v.SetDefault("scanner.min_profit_pct", 0.5)
	v.SetDefault("scanner.default_investment", 100000)
	v.SetDefault("scanner.refresh_interval", "300s")

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "300s")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbitrack")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Exchanges.Names) == 0 {
		return fmt.Errorf("exchanges.names cannot be empty")
	}
	if len(c.Scanner.Assets) == 0 {
		return fmt.Errorf("scanner.assets cannot be empty")
	}
	if c.Scanner.QuoteCurrency == "" {
		return fmt.Errorf("scanner.quote_currency is required")
	}
	if c.Scanner.MinProfitPct < 0 {
		return fmt.Errorf("scanner.min_profit_pct cannot be negative")
	}
	if c.Scanner.RefreshInterval <= 0 {
		return fmt.Errorf("scanner.refresh_interval must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend: %s", c.Cache.Backend)
	}
	return nil
}
