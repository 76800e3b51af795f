package config

const (
	EnvPrefix = "ORDERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreModeLog = "log"
	StoreModeDB  = "db"

	DeliveryModeDeepLink = "deeplink"
	DeliveryModeRedis    = "redis"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                = "ORDERDESK_APP_ENV"
	EnvPort                  = "ORDERDESK_APP_PORT"
	EnvLogLevel              = "ORDERDESK_LOG_LEVEL"
	EnvShopName              = "ORDERDESK_SHOP_NAME"
	EnvShopCodePrefix        = "ORDERDESK_SHOP_CODE_PREFIX"
	EnvShopRecipient         = "ORDERDESK_SHOP_RECIPIENT"
	EnvPricingSpecialBase    = "ORDERDESK_PRICING_SPECIAL_BASE"
	EnvPricingSurcharge      = "ORDERDESK_PRICING_PREMIUM_SURCHARGE"
	EnvSessionClientDebounce = "ORDERDESK_SESSION_CLIENT_DEBOUNCE"
	EnvStoreMode             = "ORDERDESK_STORE_MODE"
	EnvDeliveryMode          = "ORDERDESK_DELIVERY_MODE"
	EnvDBDriver              = "ORDERDESK_DB_DRIVER"
	EnvDBDSN                 = "ORDERDESK_DB_DSN"
	EnvRedisURL              = "ORDERDESK_REDIS_URL"
	EnvRedisAddr             = "ORDERDESK_REDIS_ADDR"
)
