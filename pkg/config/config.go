package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MOVELARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"MOVELARIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOVELARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOVELARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MOVELARIA_DB_DSN"`

	Host     string `envconfig:"MOVELARIA_DB_HOST"`
	Port     int    `envconfig:"MOVELARIA_DB_PORT" default:"5432"`
	User     string `envconfig:"MOVELARIA_DB_USER"`
	Password string `envconfig:"MOVELARIA_DB_PASSWORD"`
	Name     string `envconfig:"MOVELARIA_DB_NAME"`
	SSLMode  string `envconfig:"MOVELARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOVELARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOVELARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOVELARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOVELARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either MOVELARIA_DB_DSN or host/user/name must be provided")
	}
	userInfo := url.User(d.User)
	if d.Password != "" {
		userInfo = url.UserPassword(d.User, d.Password)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MOVELARIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOVELARIA_REDIS_ADDR"`
	Password     string        `envconfig:"MOVELARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOVELARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOVELARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOVELARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOVELARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOVELARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOVELARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MOVELARIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MOVELARIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MOVELARIA_JWT_EXPIRATION_MINUTES" default:"480"`
}

type CheckoutConfig struct {
	// FinalizeIdempotencyTTL bounds the window in which a repeated
	// finalize submission with the same key is treated as a duplicate.
	FinalizeIdempotencyTTL time.Duration `envconfig:"MOVELARIA_FINALIZE_IDEMPOTENCY_TTL" default:"2m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MOVELARIA_CRON_INTERVAL" default:"1h"`
	// LockTTL must outlast a full cycle so a crashed worker cannot wedge
	// the lock forever.
	LockTTL time.Duration `envconfig:"MOVELARIA_CRON_LOCK_TTL" default:"65m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MOVELARIA_AUTO_MIGRATE" default:"false"`
}
