package shared

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	ModeRaw        = "raw"
	ModeAggregated = "aggregated"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/valomaison?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`

	// EstimateBudget must leave room for the response inside HTTPTimeout.
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	EstimateBudget time.Duration `env:"ESTIMATE_BUDGET" envDefault:"45s"`

	// Empty RedisAddr selects the file cache.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	CacheFile string `env:"CACHE_FILE" envDefault:"cache/dvf_cache.json"`
	CacheTTL  int    `env:"CACHE_TTL_SECONDS" envDefault:"86400"`

	DVFBase          string        `env:"DVF_BASE_URL" envDefault:"https://api.cquest.org/dvf"`
	GeoBase          string        `env:"GEO_BASE_URL" envDefault:"https://geo.api.gouv.fr"`
	UpstreamInterval time.Duration `env:"UPSTREAM_INTERVAL" envDefault:"500ms"`
	UpstreamAttempts int           `env:"UPSTREAM_ATTEMPTS" envDefault:"3"`
	DVFTimeout       time.Duration `env:"DVF_TIMEOUT" envDefault:"30s"`
	GeoTimeout       time.Duration `env:"GEO_TIMEOUT" envDefault:"15s"`
	DVFMinYear       int           `env:"DVF_MIN_YEAR" envDefault:"2014"`

	MinTransactions int    `env:"MIN_TRANSACTIONS" envDefault:"10"`
	RadiusTiers     []int  `env:"RADIUS_TIERS_KM" envDefault:"15,30,50" envSeparator:","`
	ProviderMode    string `env:"PROVIDER_MODE" envDefault:"raw"`

	RefreshWorkers int      `env:"REFRESH_WORKERS" envDefault:"10"`
	RefreshAreas   []string `env:"REFRESH_AREAS" envSeparator:","`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not loaded")
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.ProviderMode != ModeRaw && c.ProviderMode != ModeAggregated {
		return fmt.Errorf("PROVIDER_MODE must be %q or %q, got %q", ModeRaw, ModeAggregated, c.ProviderMode)
	}
	if c.MinTransactions < 1 {
		return errors.New("MIN_TRANSACTIONS must be positive")
	}
	if len(c.RadiusTiers) == 0 {
		return errors.New("RADIUS_TIERS_KM is empty")
	}
	for _, r := range c.RadiusTiers {
		if r <= 0 {
			return fmt.Errorf("RADIUS_TIERS_KM: invalid radius %d", r)
		}
	}
	if c.UpstreamAttempts < 1 {
		return errors.New("UPSTREAM_ATTEMPTS must be positive")
	}
	if c.RefreshWorkers < 1 {
		return errors.New("REFRESH_WORKERS must be positive")
	}
	if c.HTTPTimeout <= 0 || c.EstimateBudget <= 0 {
		return errors.New("HTTP_TIMEOUT and ESTIMATE_BUDGET must be positive")
	}
	if c.EstimateBudget >= c.HTTPTimeout {
		return fmt.Errorf("ESTIMATE_BUDGET (%s) must be shorter than HTTP_TIMEOUT (%s)", c.EstimateBudget, c.HTTPTimeout)
	}
	if c.UpstreamInterval <= 0 {
		log.Warn().Dur("interval", c.UpstreamInterval).Msg("UPSTREAM_INTERVAL not positive, falling back to 500ms")
	}
	return nil
}
