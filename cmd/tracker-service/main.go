package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/matchup"
	"github.com/radieske/wager-tracker/internal/schedule"
	sharedcache "github.com/radieske/wager-tracker/internal/shared/cache"
	"github.com/radieske/wager-tracker/internal/shared/config"
	"github.com/radieske/wager-tracker/internal/shared/db"
	"github.com/radieske/wager-tracker/internal/shared/kafka"
	"github.com/radieske/wager-tracker/internal/shared/logger"
	"github.com/radieske/wager-tracker/internal/shared/metrics"
	"github.com/radieske/wager-tracker/internal/tracker-service/dedup"
	thttp "github.com/radieske/wager-tracker/internal/tracker-service/http"
	kpub "github.com/radieske/wager-tracker/internal/tracker-service/producer"
	"github.com/radieske/wager-tracker/internal/tracker-service/repo"
	"github.com/radieske/wager-tracker/internal/tracker-service/service"
	"github.com/radieske/wager-tracker/internal/vision"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (dedup de prints)
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (um por tópico de aposta)
	trackedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerTracked)
	defer trackedW.Close()
	statusW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerStatus)
	defer statusW.Close()
	archivedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerArchived)
	defer archivedW.Close()

	// Em local/dev cria os tópicos de aposta antes de ler/escrever
	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := kafka.EnsureTopics(tctx, cfg.KafkaBrokers, 3,
			cfg.TopicWagerTracked, cfg.TopicWagerStatus, cfg.TopicWagerArchived, cfg.TopicWagerDLQ); err != nil {
			log.Warn("kafka topics", zap.Error(err))
		}
		tcancel()
	}

	// Métricas
	tracked := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_wagers_tracked_total", Help: "apostas registradas"})
	extractFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_extraction_failures_total", Help: "saídas do modelo sem JSON"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_matchup_unresolved_total", Help: "apostas sem matchup"})
	prometheus.MustRegister(tracked, extractFailed, unresolved)

	// Catálogo em memória com TTL
	cat := catalog.NewCache(&catalog.PostgresStore{DB: pg}, cfg.CatalogTTL)

	tracker := &service.Tracker{
		Log:      log,
		Store:    repo.NewPostgres(pg),
		Vision:   vision.New(cfg.VisionURL),
		Matchups: matchup.NewResolver(cat, log),
		Catalog:  cat,
		Events:   kpub.NewKafkaPublisher(trackedW, statusW, archivedW),
		Dedup:    dedup.NewGuard(rdb, cfg.DedupTTL),
		Loc:      cfg.Location(),

		OnTracked:          tracked.Inc,
		OnExtractionFailed: extractFailed.Inc,
		OnUnresolved:       unresolved.Inc,
	}
	if cfg.ScheduleEnabled {
		tracker.Schedule = schedule.New()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// carga inicial; falha aqui não derruba o serviço, o próximo pedido tenta de novo
	if snap, err := cat.Refresh(ctx, true); err != nil {
		log.Warn("catalog warmup failed", zap.Error(err))
	} else {
		log.Info("catalog loaded", zap.Int("leagues", len(snap.Leagues())))
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// HTTP público
	api := thttp.NewServer(log, tracker)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("tracker-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
