package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"zeus/internal/backend"
	"zeus/internal/cache"
	"zeus/internal/cli"
	"zeus/internal/config"
	apphttp "zeus/internal/http"
	zlog "zeus/internal/log"
	"zeus/internal/metrics"
	"zeus/internal/middleware/ratelimit"
	"zeus/internal/news"
	"zeus/internal/services"
	"zeus/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, zlog.ComponentApp)
	cfg = cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx := context.Background()
	m := metrics.New()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", zlog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", zlog.FieldError, err, zlog.FieldBackend, bc.Type)
		os.Exit(1)
	}

	ledger, err := services.NewLedgerService(zlog.WithLogger(ctx, logger), res.Store, res.Publisher, m)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			logger.Error("Saved data is corrupt, refusing to start", zlog.FieldError, err)
		} else {
			logger.Error("Failed to load ledger", zlog.FieldError, err)
		}
		runCleanup(logger, res.Cleanup)
		os.Exit(1)
	}

	cacheManager := cache.NewManager()
	newsClient, closeNewsCache := newNewsClient(ctx, cfg, logger, m, cacheManager)
	cacheManager.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:    ledger,
		News:      newsClient,
		Metrics:   m,
		Logger:    logger,
		RateLimit: ratelimit.DefaultConfig(),
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", zlog.FieldError, err)
		}
		cacheManager.Stop()
		closeNewsCache()
		runCleanup(logger, res.Cleanup)
	})

	logger.Info("Starting zeus server", "port", cfg.Port, zlog.FieldBackend, bc.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", zlog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// newNewsClient returns nil when the feed is disabled. Redis backs the cache
// when configured and reachable; otherwise an in-process LRU does. The
// returned func releases the Redis connection pool.
func newNewsClient(ctx context.Context, cfg *config.Config, logger *zlog.Logger, m *metrics.Metrics, mgr *cache.Manager) (apphttp.NewsSource, func()) {
	closeCache := func() {}
	if cfg.NewsFeedURL == "" {
		logger.Info("News feed disabled")
		return nil, closeCache
	}

	var c cache.Cache[[]news.Item]
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process news cache", zlog.FieldError, err)
		} else {
			c = cache.NewRedisCache[[]news.Item](rdb, "zeus:news:", cfg.NewsCacheTTL)
			closeCache = func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("Redis close failed", zlog.FieldError, err)
				}
			}
		}
	}
	if c == nil {
		lru := cache.NewLRUCache[[]news.Item](8, cfg.NewsCacheTTL)
		mgr.Register(lru)
		c = lru
	}

	return news.NewClient(news.Options{
		URL:     cfg.NewsFeedURL,
		Limit:   cfg.NewsLimit,
		Timeout: cfg.NewsTimeout,
		Cache:   c,
		Metrics: m,
	}), closeCache
}

func runCleanup(logger *zlog.Logger, cleanup backend.CleanupFunc) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Warn("Backend cleanup failed", zlog.FieldError, err)
	}
}
