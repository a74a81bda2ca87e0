package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"SignalScanner/internal/cache"
	"SignalScanner/internal/collector"
	"SignalScanner/internal/config"
	"SignalScanner/internal/logging"
	"SignalScanner/internal/metrics"
	"SignalScanner/internal/notifier"
	"SignalScanner/internal/scanner"
	"SignalScanner/internal/scheduler"
	"SignalScanner/internal/server"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.App.LogLevel)
	log.Info().Str("config", cfgPath).Msg("SignalScanner starting")
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var fetcher collector.Fetcher
	if cfg.UseMock() {
		symbols := cfg.Scan.Symbols
		if len(symbols) == 0 {
			symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
		}
		fetcher = &collector.MockFetcher{Symbols: symbols, Price: 100}
	} else {
		bf, err := collector.NewBinanceFetcher(collector.BinanceOptions{
			BaseURL:           cfg.Exchange.BaseURL,
			QuoteAsset:        cfg.Exchange.QuoteAsset,
			Proxy:             cfg.Proxy,
			RequestsPerSecond: cfg.Exchange.RequestsPerSecond,
			Burst:             cfg.Exchange.Burst,
			Timeout:           time.Duration(cfg.Exchange.TimeoutSec) * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("create binance fetcher")
		}
		fetcher = bf
	}

	store := openCache(ctx, cfg, log)
	defer store.Close()
	fetcher = cache.NewCachingFetcher(fetcher, store, log.With().Str("component", "cache").Logger())
	log.Info().Str("source", fetcher.Name()).Str("cache", cfg.Cache.Backend).Msg("data source ready")

	sc := scanner.New(fetcher, scanner.Options{
		Timeframe:   cfg.Scan.Timeframe,
		Limit:       cfg.Scan.Limit,
		DailyLimit:  cfg.Scan.DailyLimit,
		Concurrency: cfg.Scan.Concurrency,
		Params:      cfg.Indicators,
		Symbols:     cfg.Scan.Symbols,
	}, log.With().Str("component", "scanner").Logger(), m)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy,
		log.With().Str("component", "telegram").Logger())

	sched := scheduler.NewScheduler(ctx, sc, tn, log.With().Str("component", "scheduler").Logger(), m)
	if err := sched.Register(cfg.Scan.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           server.NewRouter(server.NewHandler(sched, tn, log), reg, log.With().Str("component", "http").Logger()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	if cfg.Scan.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing scan now")
		go sched.RunScan(ctx)
	}

	log.Info().Msg("SignalScanner is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("SignalScanner stopped")
}

// openCache builds the configured candle cache, falling back to no caching when
// the backend cannot be opened.
func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.Store {
	switch cfg.Cache.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create cache directory")
		}
		s, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite cache failed, caching disabled")
			return cache.NewNoopStore()
		}
		return s
	case "redis":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		s, err := cache.NewRedisStore(pingCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("init redis cache failed, caching disabled")
			return cache.NewNoopStore()
		}
		return s
	default:
		return cache.NewNoopStore()
	}
}
