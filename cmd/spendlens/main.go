package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmenon/spendlens-go/internal/config"
	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/handler"
	"github.com/kmenon/spendlens-go/internal/infra/cache"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/infra/resilience"
	"github.com/kmenon/spendlens-go/internal/infra/supabase"
	"github.com/kmenon/spendlens-go/internal/port"
	"github.com/kmenon/spendlens-go/internal/service"
	"github.com/kmenon/spendlens-go/internal/view"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("expense_table", cfg.ExpenseTable),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("link_ttl", cfg.LinkTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "spendlens")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	sessions := cache.New[*view.Model](cfg.SessionTTL)

	var payloads port.Cache[*domain.DashboardData]
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis[*domain.DashboardData](cfg.RedisAddr, "spendlens", cfg.CacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory payload cache",
				zap.String("redis_addr", cfg.RedisAddr),
				zap.Error(err),
			)
			payloads = cache.New[*domain.DashboardData](cfg.CacheTTL)
		} else {
			logger.Info("using redis payload cache", zap.String("redis_addr", cfg.RedisAddr))
			defer redisCache.Close()
			payloads = redisCache
		}
	} else {
		payloads = cache.New[*domain.DashboardData](cfg.CacheTTL)
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Store ---
	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cfg.ExpenseTable,
		cb,
		bulkhead,
		resilienceCfg,
		logger,
	)
	logger.Info("using Supabase ledger store", zap.String("supabase_url", cfg.SupabaseURL))

	// --- Services ---
	dashSvc := service.NewDashboardService(store, sessions, payloads, metrics, logger)
	linkSvc := service.NewLinkService(cfg.LinkSecret, cfg.LinkTTL, cfg.DashboardBaseURL)

	// --- Router ---
	router := handler.NewRouter(dashSvc, linkSvc, cfg.BotAPIKey, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
