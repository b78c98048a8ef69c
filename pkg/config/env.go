package config

const (
	EnvPrefix = "COLCHONES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EnvAppEnv               = "COLCHONES_APP_ENV"
	EnvPort                 = "COLCHONES_APP_PORT"
	EnvLogLevel             = "COLCHONES_LOG_LEVEL"
	EnvDBDriver             = "COLCHONES_DB_DRIVER"
	EnvDBDSN                = "COLCHONES_DB_DSN"
	EnvRedisURL             = "COLCHONES_REDIS_URL"
	EnvPaymentMethods       = "COLCHONES_PAYMENT_METHODS"
	EnvDefaultPaymentMethod = "COLCHONES_DEFAULT_PAYMENT_METHOD"
	EnvCartSnapshotTTL      = "COLCHONES_CART_SNAPSHOT_TTL"
	EnvStoreName            = "COLCHONES_STORE_NAME"
)
