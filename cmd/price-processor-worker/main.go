package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/price-processor/cache"
	"github.com/degenecho/price-game-platform/internal/price-processor/consumer"
	"github.com/degenecho/price-game-platform/internal/price-processor/repository"
	sharedcache "github.com/degenecho/price-game-platform/internal/shared/cache"
	"github.com/degenecho/price-game-platform/internal/shared/config"
	"github.com/degenecho/price-game-platform/internal/shared/db"
	sharedkafka "github.com/degenecho/price-game-platform/internal/shared/kafka"
	"github.com/degenecho/price-game-platform/internal/shared/logger"
	"github.com/degenecho/price-game-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Cache do último tick e repositório de histórico
	ttl := 2 * time.Minute
	rcache := cache.NewRedisCache(redisClient, ttl)
	repo := repository.NewPostgresRepo(pg)

	// Configura o consumer Kafka (consumer group price-processor)
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicPriceTicks, "price-processor")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "price_proc_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "price_proc_cache_sets_total", Help: "sets no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "price_proc_db_writes_total", Help: "escritas no banco"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "price_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persist, errorsBy)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		Cache:      rcache,
		OnConsumed: consumed.Inc,
		OnCached:   cached.Inc,
		OnPersist:  persist.Inc,
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("price-processor-worker started", zap.String("consume", cfg.TopicPriceTicks))
	if err := proc.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("processor", zap.Error(err))
	}
}
