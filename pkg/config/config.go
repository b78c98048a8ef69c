package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	POS          POSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.POS.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COLCHONES_APP_ENV" default:"dev"`
	Port         string `envconfig:"COLCHONES_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"COLCHONES_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"COLCHONES_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"COLCHONES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"COLCHONES_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"COLCHONES_DB_DSN" default:"data/facturas.db"`

	MaxOpenConns    int           `envconfig:"COLCHONES_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"COLCHONES_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"COLCHONES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COLCHONES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the ledger lives in an embedded SQLite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

func (db DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%s must be one of %s, %s (got %q)", EnvDBDriver, DriverSQLite, DriverPostgres, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// RedisConfig is optional; an empty URL and address disable cart snapshots.
type RedisConfig struct {
	URL          string        `envconfig:"COLCHONES_REDIS_URL"`
	Address      string        `envconfig:"COLCHONES_REDIS_ADDR"`
	Password     string        `envconfig:"COLCHONES_REDIS_PASSWORD"`
	DB           int           `envconfig:"COLCHONES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COLCHONES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COLCHONES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COLCHONES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COLCHONES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COLCHONES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type POSConfig struct {
	PaymentMethods       []string      `envconfig:"COLCHONES_PAYMENT_METHODS" default:"EFECTIVO,TRANSFERENCIA,DEBITO,CREDITO,3 CUOTAS,6 CUOTAS"`
	DefaultPaymentMethod string        `envconfig:"COLCHONES_DEFAULT_PAYMENT_METHOD" default:"EFECTIVO"`
	CartSnapshotTTL      time.Duration `envconfig:"COLCHONES_CART_SNAPSHOT_TTL" default:"12h"`
	// StoreName heads printed receipts.
	StoreName            string        `envconfig:"COLCHONES_STORE_NAME" default:"Colchones"`
}

func (p *POSConfig) validate() error {
	methods := make([]string, 0, len(p.PaymentMethods))
	for _, method := range p.PaymentMethods {
		if trimmed := strings.TrimSpace(method); trimmed != "" {
			methods = append(methods, trimmed)
		}
	}
	if len(methods) == 0 {
		return fmt.Errorf("%s must list at least one payment method", EnvPaymentMethods)
	}
	p.PaymentMethods = methods
	p.DefaultPaymentMethod = strings.TrimSpace(p.DefaultPaymentMethod)
	for _, method := range methods {
		if method == p.DefaultPaymentMethod {
			return nil
		}
	}
	return fmt.Errorf("%s %q is not one of %s", EnvDefaultPaymentMethod, p.DefaultPaymentMethod, EnvPaymentMethods)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COLCHONES_AUTO_MIGRATE" default:"true"`
}
