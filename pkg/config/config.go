package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Shop         ShopConfig
	Pricing      PricingConfig
	Session      SessionConfig
	Store        StoreConfig
	Delivery     DeliveryConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ShopConfig struct {
	Name           string   `envconfig:"ORDERDESK_SHOP_NAME" default:"EntreAlas"`
	CodePrefix     string   `envconfig:"ORDERDESK_SHOP_CODE_PREFIX" default:"EA"`
	CurrencySymbol string   `envconfig:"ORDERDESK_SHOP_CURRENCY_SYMBOL" default:"$"`
	Recipient      string   `envconfig:"ORDERDESK_SHOP_RECIPIENT"`
	DeepLinkBase   string   `envconfig:"ORDERDESK_SHOP_DEEP_LINK_BASE" default:"https://wa.me/"`
	AllowedOrigins []string `envconfig:"ORDERDESK_SHOP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type PricingConfig struct {
	SpecialBase      decimal.Decimal `envconfig:"ORDERDESK_PRICING_SPECIAL_BASE" default:"25"`
	PremiumSurcharge decimal.Decimal `envconfig:"ORDERDESK_PRICING_PREMIUM_SURCHARGE" default:"5"`
}

type SessionConfig struct {
	ClientDebounce time.Duration `envconfig:"ORDERDESK_SESSION_CLIENT_DEBOUNCE" default:"150ms"`
	IdleTTL        time.Duration `envconfig:"ORDERDESK_SESSION_IDLE_TTL" default:"2h"`
	SweepInterval  time.Duration `envconfig:"ORDERDESK_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type StoreConfig struct {
	Mode string `envconfig:"ORDERDESK_STORE_MODE" default:"log"`
}

// UsesDB reports whether saved orders go to the database.
func (s StoreConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(s.Mode), StoreModeDB)
}

type DeliveryConfig struct {
	Mode string `envconfig:"ORDERDESK_DELIVERY_MODE" default:"deeplink"`
}

// UsesRedis reports whether delivered orders are handed off through redis.
func (d DeliveryConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(d.Mode), DeliveryModeRedis)
}

type DBConfig struct {
	Driver string `envconfig:"ORDERDESK_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"ORDERDESK_DB_DSN" default:"file:orderdesk.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsPostgres reports whether the configured driver targets postgres.
func (d DBConfig) IsPostgres() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), DBDriverPostgres)
}

type RedisConfig struct {
	URL             string        `envconfig:"ORDERDESK_REDIS_URL"`
	Address         string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password        string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB              int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize        int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns    int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout     time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout     time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout    time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"3s"`
	DeliveryChannel string        `envconfig:"ORDERDESK_REDIS_DELIVERY_CHANNEL" default:"orders"`
	IdempotencyTTL  time.Duration `envconfig:"ORDERDESK_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// Configured reports whether any redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERDESK_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Shop.CodePrefix) == "" {
		return fmt.Errorf("%s must not be empty", EnvShopCodePrefix)
	}
	if c.Pricing.SpecialBase.IsNegative() || c.Pricing.PremiumSurcharge.IsNegative() {
		return fmt.Errorf("special pricing must not be negative")
	}
	if c.Session.ClientDebounce < 0 {
		return fmt.Errorf("%s must not be negative", EnvSessionClientDebounce)
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Mode)) {
	case StoreModeLog, StoreModeDB:
	default:
		return fmt.Errorf("%s must be one of %s|%s, got %q", EnvStoreMode, StoreModeLog, StoreModeDB, c.Store.Mode)
	}

	switch strings.ToLower(strings.TrimSpace(c.Delivery.Mode)) {
	case DeliveryModeDeepLink:
	case DeliveryModeRedis:
		if !c.Redis.Configured() {
			return fmt.Errorf("either %s or %s is required for redis delivery", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("%s must be one of %s|%s, got %q", EnvDeliveryMode, DeliveryModeDeepLink, DeliveryModeRedis, c.Delivery.Mode)
	}

	if c.Store.UsesDB() {
		switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
		case DBDriverPostgres, DBDriverSQLite:
		default:
			return fmt.Errorf("%s must be one of %s|%s, got %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite, c.DB.Driver)
		}
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvStoreMode, StoreModeDB)
		}
	}
	return nil
}
