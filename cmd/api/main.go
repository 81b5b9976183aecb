package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"valomaison/internal/adapters/dvf"
	"valomaison/internal/adapters/geoapi"
	server "valomaison/internal/adapters/http_server"
	"valomaison/internal/adapters/observability"
	redisad "valomaison/internal/adapters/redis"
	"valomaison/internal/adapters/upstream"
	"valomaison/internal/app"
	"valomaison/internal/domain"
	"valomaison/internal/shared"
	"valomaison/internal/storage/filecache"
	mysqlrepo "valomaison/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := openCache(ctx, cfg)
	defer func() {
		if err := cache.Close(); err != nil {
			log.Error().Err(err).Msg("cache close failed")
		}
	}()
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	// one limiter for every upstream call
	rl := upstream.NewLimiter(cfg.UpstreamInterval)
	retry := upstream.RetryPolicy{Attempts: cfg.UpstreamAttempts, Base: upstream.DefaultRetry.Base}

	var (
		raw domain.TransactionSource
		pre domain.AreaStatsSource
		geo domain.Geocoder
	)
	switch cfg.ProviderMode {
	case shared.ModeAggregated:
		if err := mysqlrepo.Migrate(cfg.MySQLDSN); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db)
		pre, geo = repo, repo
	default:
		dvfc := dvf.New(cfg.DVFBase, cfg.DVFTimeout, rl, retry, cfg.DVFMinYear)
		raw = app.NewCachedTransactions(dvfc, cache, ttl)
		geo = geoapi.New(cfg.GeoBase, cfg.GeoTimeout, rl, retry)
	}

	exp := app.NewExpander(geo, cache, ttl, cfg.RadiusTiers)
	agg, err := app.NewAggregator(raw, pre, exp, cfg.MinTransactions)
	if err != nil {
		log.Fatal().Err(err).Msg("aggregator")
	}
	agg.SetBudget(cfg.EstimateBudget)
	est := app.NewEstimator(agg, app.DefaultAdjustmentModel())

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{E: est})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("provider", cfg.ProviderMode).
		Ints("radius_tiers_km", exp.RadiusTiers()).
		Dur("estimate_budget", cfg.EstimateBudget).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdown); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// openCache prefers Redis when configured and reachable, else the JSON file cache.
func openCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		err := rc.Ping(ctx)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			return rc
		}
		log.Warn().Err(err).Msg("redis unreachable, using file cache")
		_ = rc.Close()
	}
	fc, err := filecache.Open(cfg.CacheFile)
	if err != nil {
		log.Fatal().Err(err).Msg("open file cache")
	}
	log.Info().Str("path", cfg.CacheFile).Int("entries", fc.Len()).Msg("file cache ok")
	go fc.FlushEvery(ctx, time.Minute)
	return fc
}
