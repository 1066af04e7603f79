package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/api-gateway/proxy"
	"github.com/radieske/wager-tracker/internal/shared/config"
	"github.com/radieske/wager-tracker/internal/shared/logger"
	"github.com/radieske/wager-tracker/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	h, err := proxy.NewRouter(log, proxy.Upstreams{Tracker: cfg.TrackerURL, Stats: cfg.StatsURL}, cfg.CORSOrigins)
	if err != nil {
		log.Fatal("gateway routes", zap.Error(err))
	}

	// gateway não tem dependências próprias; /healthz só indica processo vivo
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("api-gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("tracker", cfg.TrackerURL),
			zap.String("stats", cfg.StatsURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
