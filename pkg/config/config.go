package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "mom"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Mirror driver names accepted by MOM_MIRROR_DRIVER.
const (
	MirrorDriverRedis    = "redis"
	MirrorDriverDatabase = "database"
	MirrorDriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	Mirror   MirrorConfig
	Redis    RedisConfig
	DB       DBConfig
	Backend  BackendConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Realtime RealtimeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Mirror.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MOM_APP_ENV" required:"true"`
	Port         string `envconfig:"MOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MOM_SERVICE_KIND" default:"api"`
}

// MirrorConfig selects the key-value mirror backing session state.
type MirrorConfig struct {
	Driver string `envconfig:"MOM_MIRROR_DRIVER" default:"redis"`
}

func (m MirrorConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Driver)) {
	case MirrorDriverRedis, MirrorDriverDatabase, MirrorDriverMemory:
		return nil
	}
	return fmt.Errorf("unknown mirror driver %q", m.Driver)
}

// Normalized returns the lowercase mirror driver name.
func (m MirrorConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(m.Driver))
}

type RedisConfig struct {
	URL          string        `envconfig:"MOM_REDIS_URL"`
	Address      string        `envconfig:"MOM_REDIS_ADDR"`
	Password     string        `envconfig:"MOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver string `envconfig:"MOM_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"MOM_DB_DSN" default:"sessionhub.db"`

	MaxOpenConns    int           `envconfig:"MOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// BackendConfig points at the platform API that owns all domain data.
type BackendConfig struct {
	BaseURL         string        `envconfig:"MOM_BACKEND_BASE_URL" required:"true"`
	UsageTimeout    time.Duration `envconfig:"MOM_BACKEND_USAGE_TIMEOUT" default:"3s"`
	CheckoutTimeout time.Duration `envconfig:"MOM_BACKEND_CHECKOUT_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MOM_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"MOM_PUBSUB_EVENTS_TOPIC" default:"mom-platform-events"`
	EventsSubscription string `envconfig:"MOM_PUBSUB_EVENTS_SUBSCRIPTION"`
}

type RealtimeConfig struct {
	SubscriberBuffer int `envconfig:"MOM_REALTIME_SUBSCRIBER_BUFFER" default:"16"`
}
