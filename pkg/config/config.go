package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable this service reads.
	EnvPrefix = "AQUAOPS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AQUAOPS_DB_DSN"
	EnvDBHost = "AQUAOPS_DB_HOST"
	EnvDBUser = "AQUAOPS_DB_USER"
	EnvDBName = "AQUAOPS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Sync         SyncConfig
	Cron         CronConfig
	Idempotency  IdempotencyConfig
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
	Env          string `envconfig:"AQUAOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"AQUAOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AQUAOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AQUAOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AQUAOPS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AQUAOPS_DB_DSN"`
	Driver string `envconfig:"AQUAOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AQUAOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"AQUAOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AQUAOPS_DB_USER"`
	LegacyPassword string `envconfig:"AQUAOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AQUAOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AQUAOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AQUAOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AQUAOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AQUAOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AQUAOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AQUAOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AQUAOPS_REDIS_ADDR"`
	Password     string        `envconfig:"AQUAOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AQUAOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AQUAOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AQUAOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AQUAOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AQUAOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AQUAOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AQUAOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AQUAOPS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AQUAOPS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AQUAOPS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AQUAOPS_AUTO_MIGRATE" default:"false"`
}

// SyncConfig tunes the viewer synchronization clients. Operators poll at the
// short end of the range; technician and admin views can stretch toward the
// maximum.
type SyncConfig struct {
	PollInterval    time.Duration `envconfig:"AQUAOPS_SYNC_POLL_INTERVAL" default:"10s"`
	MaxPollInterval time.Duration `envconfig:"AQUAOPS_SYNC_MAX_POLL_INTERVAL" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"AQUAOPS_SYNC_REQUEST_TIMEOUT" default:"8s"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"AQUAOPS_CRON_INTERVAL" default:"1m"`
	LockTTL               time.Duration `envconfig:"AQUAOPS_CRON_LOCK_TTL" default:"5m"`
	CriticalPendingMaxAge time.Duration `envconfig:"AQUAOPS_CRON_CRITICAL_PENDING_MAX_AGE" default:"30m"`
	MetricsListenAddress  string        `envconfig:"AQUAOPS_CRON_METRICS_ADDR" default:":9102"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"AQUAOPS_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
