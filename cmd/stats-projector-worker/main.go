package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/wager-tracker/internal/shared/cache"
	"github.com/radieske/wager-tracker/internal/shared/config"
	"github.com/radieske/wager-tracker/internal/shared/kafka"
	"github.com/radieske/wager-tracker/internal/shared/logger"
	"github.com/radieske/wager-tracker/internal/shared/metrics"
	"github.com/radieske/wager-tracker/internal/stats-projector/consumer"
	"github.com/radieske/wager-tracker/internal/stats-projector/pubsub"
	statscache "github.com/radieske/wager-tracker/internal/stats-service/cache"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Em local/dev cria os tópicos de aposta antes de ler/escrever
	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := kafka.EnsureTopics(tctx, cfg.KafkaBrokers, 3,
			cfg.TopicWagerTracked, cfg.TopicWagerStatus, cfg.TopicWagerArchived, cfg.TopicWagerDLQ); err != nil {
			log.Warn("kafka topics", zap.Error(err))
		}
		tcancel()
	}

	// Consumer group único para os três tópicos de aposta
	reader := kafka.NewReader(cfg.KafkaBrokers, "stats-projector",
		cfg.TopicWagerTracked, cfg.TopicWagerStatus, cfg.TopicWagerArchived)
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicWagerDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_projector_events_total", Help: "eventos consumidos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "stats_projector_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Cache:       statscache.New(redisClient, cfg.StatsCacheTTL),
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		DLQ: func(ctx context.Context, m kafkago.Message, cause error) error {
			return kafka.SendDLQ(ctx, dlqWriter, m.Topic, string(m.Key), string(m.Value), cause)
		},
		OnConsumed: consumed.Inc,
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("stats-projector started",
		zap.Strings("topics", []string{cfg.TopicWagerTracked, cfg.TopicWagerStatus, cfg.TopicWagerArchived}),
		zap.String("channel", cfg.RedisPubSubChannel),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("stats-projector stopped")
}
