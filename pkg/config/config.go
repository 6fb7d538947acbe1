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

	EnvDBDSN  = "VENTAFLOW_DB_DSN"
	EnvDBHost = "VENTAFLOW_DB_HOST"
	EnvDBUser = "VENTAFLOW_DB_USER"
	EnvDBName = "VENTAFLOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Dispatch     DispatchConfig
	Presence     PresenceConfig
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
	Env          string `envconfig:"VENTAFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"VENTAFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENTAFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENTAFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENTAFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENTAFLOW_DB_DSN"`
	Driver string `envconfig:"VENTAFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENTAFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"VENTAFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENTAFLOW_DB_USER"`
	LegacyPassword string `envconfig:"VENTAFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENTAFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENTAFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENTAFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENTAFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENTAFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENTAFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENTAFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENTAFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"VENTAFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENTAFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENTAFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENTAFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENTAFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENTAFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENTAFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENTAFLOW_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"VENTAFLOW_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VENTAFLOW_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VENTAFLOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VENTAFLOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic          string `envconfig:"VENTAFLOW_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription   string `envconfig:"VENTAFLOW_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	PresenceTopic        string `envconfig:"VENTAFLOW_PUBSUB_PRESENCE_TOPIC"`
	PresenceSubscription string `envconfig:"VENTAFLOW_PUBSUB_PRESENCE_SUBSCRIPTION" required:"true"`
	NotificationTopic    string `envconfig:"VENTAFLOW_PUBSUB_NOTIFICATION_TOPIC" default:"vf-notification-events"`
}

// DispatchConfig tunes the assignment engine and its triggers.
type DispatchConfig struct {
	SharedSecret     string        `envconfig:"VENTAFLOW_DISPATCH_SHARED_SECRET" required:"true"`
	SweepLimit       int           `envconfig:"VENTAFLOW_DISPATCH_SWEEP_LIMIT" default:"25"`
	ManualSweepLimit int           `envconfig:"VENTAFLOW_DISPATCH_MANUAL_SWEEP_LIMIT" default:"100"`
	SweepInterval    time.Duration `envconfig:"VENTAFLOW_DISPATCH_SWEEP_INTERVAL" default:"5m"`
	CursorRetries    int           `envconfig:"VENTAFLOW_DISPATCH_CURSOR_RETRIES" default:"5"`
	OrderDocTTL      time.Duration `envconfig:"VENTAFLOW_DISPATCH_ORDER_DOC_TTL" default:"720h"`
}

// PresenceConfig describes how agent liveness keys are read.
type PresenceConfig struct {
	HeartbeatTTL time.Duration `envconfig:"VENTAFLOW_PRESENCE_HEARTBEAT_TTL" default:"90s"`
	ScanCount    int64         `envconfig:"VENTAFLOW_PRESENCE_SCAN_COUNT" default:"200"`
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
