package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOCKDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env variable names, exported for test setup.
const (
	EnvAppEnv          = "STOCKDESK_APP_ENV"
	EnvPort            = "STOCKDESK_APP_PORT"
	EnvUpstreamBaseURL = "STOCKDESK_UPSTREAM_BASE_URL"
	EnvDraftDBPath     = "STOCKDESK_DRAFT_DB_PATH"
	EnvRedisURL        = "STOCKDESK_REDIS_URL"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	DraftDB  DraftDBConfig
	Redis    RedisConfig
	Risk     RiskConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the inventory backend this gateway fronts.
type UpstreamConfig struct {
	BaseURL   string        `envconfig:"STOCKDESK_UPSTREAM_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"STOCKDESK_UPSTREAM_TIMEOUT" default:"30s"`
	Secondary string        `envconfig:"STOCKDESK_UPSTREAM_SECONDARY_STOCK_PATH" default:"/api/shenzhen/stock"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing upstream base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream base url must be absolute, got %q", u.BaseURL)
	}
	return nil
}

// DraftDBConfig locates the local sqlite file holding persisted draft lists.
type DraftDBConfig struct {
	Path            string        `envconfig:"STOCKDESK_DRAFT_DB_PATH" default:"stockdesk_drafts.db"`
	BusyTimeout     time.Duration `envconfig:"STOCKDESK_DRAFT_DB_BUSY_TIMEOUT" default:"5s"`
	MaxOpenConns    int           `envconfig:"STOCKDESK_DRAFT_DB_MAX_OPEN_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKDESK_DRAFT_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKDESK_REDIS_URL"`
	Address      string        `envconfig:"STOCKDESK_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether an idempotency store was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// RiskConfig carries the projection thresholds. Defaults mirror the
// warehouse policy: under 45 days of runway is a stockout risk, lots
// expiring within 90 days are high risk and within a year medium risk.
type RiskConfig struct {
	StockoutDays   int `envconfig:"STOCKDESK_RISK_STOCKOUT_DAYS" default:"45"`
	ExpiryHighDays int `envconfig:"STOCKDESK_RISK_EXPIRY_HIGH_DAYS" default:"90"`
	ExpiryNoneDays int `envconfig:"STOCKDESK_RISK_EXPIRY_NONE_DAYS" default:"365"`
}
