package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/archive-worker/sweeper"
	"github.com/radieske/wager-tracker/internal/shared/config"
	"github.com/radieske/wager-tracker/internal/shared/db"
	"github.com/radieske/wager-tracker/internal/shared/kafka"
	"github.com/radieske/wager-tracker/internal/shared/logger"
	"github.com/radieske/wager-tracker/internal/shared/metrics"
	kpub "github.com/radieske/wager-tracker/internal/tracker-service/producer"
	"github.com/radieske/wager-tracker/internal/tracker-service/repo"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: a varredura roda direto sobre a tabela wagers
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka producer: wager_archived e, opcionalmente, DLQ
	archivedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerArchived)
	defer archivedWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicWagerDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerDLQ)
		defer dlqWriter.Close()
	}

	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Name: "archive_sweeps_total", Help: "varreduras executadas"})
	archived := prometheus.NewCounter(prometheus.CounterOpts{Name: "archive_wagers_archived_total", Help: "apostas arquivadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "archive_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(sweeps, archived, errorsBy)

	sw := &sweeper.Sweeper{
		Log:       log,
		Store:     repo.NewPostgres(pg),
		Events:    &kpub.KafkaPublisher{Archived: archivedWriter},
		BatchSize: sweeper.DefaultBatchSize,
		Retries:   3,
		Backoff:   300 * time.Millisecond,
		DLQ: func(ctx context.Context, key string, payload any, cause error) error {
			return kafka.SendDLQ(ctx, dlqWriter, cfg.TopicWagerArchived, key, payload, cause)
		},
		OnSwept:    sweeps.Inc,
		OnArchived: func(n int) { archived.Add(float64(n)) },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"pg": pg.PingContext,
	}))
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("archive-worker started",
		zap.String("schedule", cfg.ArchiveSchedule),
		zap.String("publish", cfg.TopicWagerArchived),
	)
	if err := sw.Schedule(ctx, cfg.ArchiveSchedule); err != nil {
		log.Fatal("archive schedule", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("archive-worker stopped")
}
