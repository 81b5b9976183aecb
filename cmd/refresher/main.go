package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"valomaison/internal/adapters/dvf"
	"valomaison/internal/adapters/geoapi"
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("dvf", cfg.DVFBase).
		Int("workers", cfg.RefreshWorkers).
		Msg("refresher starting")

	if err := mysqlrepo.Migrate(cfg.MySQLDSN); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")
	repo := mysqlrepo.New(db)

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	} else {
		fc, err := filecache.Open(cfg.CacheFile)
		if err != nil {
			log.Fatal().Err(err).Msg("open file cache")
		}
		log.Info().Str("path", cfg.CacheFile).Int("entries", fc.Len()).Msg("file cache ok")
		cache = fc
	}
	defer cache.Close()

	rl := upstream.NewLimiter(cfg.UpstreamInterval)
	retry := upstream.RetryPolicy{Attempts: cfg.UpstreamAttempts, Base: upstream.DefaultRetry.Base}
	txs := app.NewCachedTransactions(
		dvf.New(cfg.DVFBase, cfg.DVFTimeout, rl, retry, cfg.DVFMinYear),
		cache, time.Duration(cfg.CacheTTL)*time.Second,
	)
	svc := app.NewRefreshService(txs, geoapi.New(cfg.GeoBase, cfg.GeoTimeout, rl, retry), repo)

	codes := cfg.RefreshAreas
	if len(codes) == 0 {
		codes, err = repo.ListAreaCodes(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("list areas failed")
		}
	}
	if len(codes) == 0 {
		log.Warn().Msg("nothing to refresh: set REFRESH_AREAS or seed the areas table")
		return
	}

	start := time.Now()
	sum, err := svc.RefreshAll(ctx, codes, cfg.RefreshWorkers)
	if err != nil {
		log.Error().Err(err).Msg("refresh interrupted")
	}
	log.Info().
		Int64("processed", sum.Processed).
		Int64("updated", sum.Updated).
		Int64("errors", sum.Errors).
		Dur("took", time.Since(start)).
		Msg("refresh completed")
}
