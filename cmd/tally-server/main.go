package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tally-service/internal/config"
	"tally-service/internal/log"
	"tally-service/tally"
	"tally-service/tally/application"
	"tally-service/tally/domain"
	"tally-service/tally/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version é preenchido via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.Must(log.NewLogger(log.WithLogLevel(cfg.LogLevel), log.WithEncoding(cfg.LogFormat))).
		With(zap.String("app", "tally-server"))
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	scheme, err := cfg.TallyScheme()
	if err != nil {
		return err
	}
	token, err := cfg.LockToken()
	if err != nil {
		return err
	}

	var storeOpts []infra.MemoryStoreOption
	if token.Valid {
		storeOpts = append(storeOpts, infra.WithLockToken(token.UUID))
	}
	store, err := infra.NewMemoryStore(scheme, storeOpts...)
	if err != nil {
		return err
	}

	stats, closeStats, err := newStats(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStats()

	api := &tally.API{
		Service: application.TallyService{
			Store:  store,
			Stats:  stats,
			Logger: logger,
		},
		Stats:   stats,
		Version: version,
	}

	h := http.Handler(api.Routes())
	if cfg.RateEnabled {
		h = tally.RateLimit(tally.RateLimitOptions{
			Limiters:            infra.NewLimiterStore(cfg.RateRPS, cfg.RateBurst, infra.WithIdleTTL(cfg.RateIdleTTL)),
			KeyHeader:           cfg.RateKeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RetryAfter:          cfg.RetryAfter,
			AddRateLimitHeaders: cfg.AddHeaders,
		})(h)
	}
	h = tally.Concurrency(tally.ConcurrencyOptions{
		MaxReads:       cfg.ConcurrencyMaxReads,
		MaxWrites:      cfg.ConcurrencyMaxWrites,
		AcquireTimeout: cfg.ConcurrencyTimeout,
	})(h)
	h = tally.CORS()(h)
	h = tally.AccessLog(logger)(h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("tally-server listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("version", version),
		zap.String("scheme", scheme.Prefix),
		zap.Uint8("min", scheme.Min),
		zap.Uint8("max", scheme.Max),
		zap.Bool("reset_locked", store.Locked()),
	)
	logger.Info("admission",
		zap.Bool("rate_enabled", cfg.RateEnabled),
		zap.Float64("rps", cfg.RateRPS),
		zap.Int("burst", cfg.RateBurst),
		zap.Int("concurrency_max_reads", cfg.ConcurrencyMaxReads),
		zap.Int("concurrency_max_writes", cfg.ConcurrencyMaxWrites),
		zap.String("stats", cfg.StatsBackend),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func newStats(ctx context.Context, cfg config.Config) (domain.StatsStore, func(), error) {
	switch cfg.StatsBackend {
	case "memory":
		return infra.NewMemoryStatsStore(infra.WithTrackIdentifiers(cfg.StatsTrackIdentifiers)), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.StatsRedisAddr,
			Password: cfg.StatsRedisPassword,
			DB:       cfg.StatsRedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis stats ping: %w", err)
		}

		return infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
		), func() { _ = rdb.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
