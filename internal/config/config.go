package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	DBDriver          string        `env:"DB_DRIVER,default=postgres"`
	DBHost            string        `env:"DB_HOST"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBSQLitePath      string        `env:"DB_SQLITE_PATH,default=mira.db"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	UnleashAPIKey    string        `env:"UNLEASH_API_KEY,required"`
	UnleashBaseURL   string        `env:"UNLEASH_BASE_URL,default=https://api.unleashnfts.com/api/v1"`
	UnleashTimeout   time.Duration `env:"UNLEASH_TIMEOUT,default=10s"`
	UnleashRateLimit float64       `env:"UNLEASH_RATE_LIMIT,default=5"`
	UnleashRateBurst int           `env:"UNLEASH_RATE_BURST,default=5"`

	GeminiAPIKey          string        `env:"GEMINI_API_KEY,required"`
	GeminiClassifierModel string        `env:"GEMINI_CLASSIFIER_MODEL,default=gemini-2.5-pro"`
	GeminiSummaryModel    string        `env:"GEMINI_SUMMARY_MODEL,default=gemini-2.5-pro"`
	GeminiTimeout         time.Duration `env:"GEMINI_TIMEOUT,default=30s"`

	RedisURL         string        `env:"REDIS_URL"`
	ResolverCacheTTL time.Duration `env:"RESOLVER_CACHE_TTL,default=1h"`
	ResolverMaxPages int           `env:"RESOLVER_MAX_PAGES,default=5"`
	ResolverPageSize int           `env:"RESOLVER_PAGE_SIZE,default=50"`
	MinConfidence    float64       `env:"ROUTER_MIN_CONFIDENCE,default=0"`

	AlertCheckSchedule   string        `env:"ALERT_CHECK_SCHEDULE,default=@every 5m"`
	AlertEvalParallelism int           `env:"ALERT_EVAL_PARALLELISM,default=4"`
	AlertBatchLockTTL    time.Duration `env:"ALERT_BATCH_LOCK_TTL,default=10m"`

	TriggerListenAddr string `env:"TRIGGER_LISTEN_ADDR"`
	TriggerSecret     string `env:"TRIGGER_SECRET"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("DB_HOST, DB_USER and DB_NAME are required for postgres")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TriggerListenAddr != "" && c.TriggerSecret == "" {
		return errors.New("TRIGGER_SECRET is required when TRIGGER_LISTEN_ADDR is set")
	}
	if c.AlertEvalParallelism < 1 {
		return errors.New("ALERT_EVAL_PARALLELISM must be at least 1")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("ROUTER_MIN_CONFIDENCE must be within [0,1]")
	}
	return nil
}
