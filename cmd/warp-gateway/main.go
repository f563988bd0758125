package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/warp/internal/api"
	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/publisher"
	"github.com/Checker-Finance/warp/internal/rate"
	"github.com/Checker-Finance/warp/internal/store"
	"github.com/Checker-Finance/warp/pkg/config"
	"github.com/Checker-Finance/warp/pkg/logger"
	"github.com/Checker-Finance/warp/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infof("starting [%s]...", cfg.ServiceName)
	logg.Info("quoting backend: ", utils.MaskURL(cfg.BackendURL))

	// --- Rate limiter (per caller, toward the backend) ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.BackendRPS,
		Burst:             cfg.BackendBurst,
		IdleTTL:           cfg.LimiterIdle,
	})
	rateMgr.StartJanitor(ctx, cfg.CleanupFreq)

	// --- Backend client ---
	client := backend.NewClient(logg.Desugar(), backend.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		RetryMax: cfg.BackendRetryMax,
		RateMgr:  rateMgr,
	})

	// --- Quote cache (Redis, or in-memory when REDIS_ADDR is unset) ---
	var st store.QuoteStore
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.QuoteTTL, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init redis store", "addr", utils.MaskURL(cfg.RedisAddr), "error", err)
		}
		st = rs
	} else {
		logg.Warn("REDIS_ADDR not set, quotes are cached in memory")
		st = store.NewMemory(cfg.QuoteTTL, cfg.CleanupFreq)
	}

	// --- Events (optional) ---
	var (
		nc     *nats.Conn
		pub    *publisher.Publisher
		events api.EventPublisher
	)
	if cfg.NATSURL != "" {
		var err error
		pub, err = publisher.Connect(cfg.NATSURL, cfg.EventsSubject, cfg.ServiceName, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init publisher", "nats", utils.MaskURL(cfg.NATSURL), "error", err)
		}
		nc = pub.Conn()
		events = pub
	} else {
		logg.Warn("NATS_URL not set, event publishing disabled")
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,

		DisableStartupMessage: !cfg.HTTPBanner,
	})

	handler := api.NewGatewayHandler(logg.Desugar(), client, st, events)
	api.RegisterRoutes(app, nc, st, client, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow(fmt.Sprintf("[%s] running", cfg.ServiceName),
		"env", cfg.Env,
		"quote_ttl", cfg.QuoteTTL,
		"events", cfg.NATSURL != "")

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if pub != nil {
		pub.Close()
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
