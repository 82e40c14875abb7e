package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"lead-relay/internal/api"
	"lead-relay/internal/archive"
	"lead-relay/internal/config"
	"lead-relay/internal/delivery"
	"lead-relay/internal/failstore"
	"lead-relay/internal/ratelimit"
	"lead-relay/internal/retry"
	"lead-relay/internal/submit"
	"lead-relay/internal/telemetry"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := failstore.New(rdb)

	var arch *archive.Archive
	if cfg.PostgresDSN != "" {
		var err error
		arch, err = archive.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer arch.Close()
		if err := arch.RunMigrations(ctx); err != nil {
			log.Fatalf("migrations: %v", err)
		}
	}

	router := &delivery.Router{
		Email: delivery.NewEmailClient(cfg.EmailEndpoint, cfg.EmailUserID),
		Sheet: delivery.NewSheetClient(cfg.SheetWebhookURL),
	}

	var orch *submit.Orchestrator
	if arch != nil {
		orch = submit.New(router, store, arch)
	} else {
		orch = submit.New(router, store, nil)
	}

	limiter := ratelimit.NewTokenBucket(rdb, cfg.RateLimitCapacity, cfg.RateLimitRefill, time.Hour)

	scheduler := retry.New(store, router, cfg.RetryStartupDelay, cfg.RetryInterval)
	if arch != nil {
		scheduler.Archive = arch
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("retry scheduler stopped: %v", err)
		}
	}()

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	server := api.New(cfg, orch, store, limiter)
	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("lead-relay listening on :%s retry_delay=%s retry_interval=%s", cfg.HTTPPort, cfg.RetryStartupDelay, cfg.RetryInterval)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}
