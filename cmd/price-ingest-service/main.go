package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/price-ingest/publisher"
	"github.com/degenecho/price-game-platform/internal/price-ingest/service"
	"github.com/degenecho/price-game-platform/internal/shared/config"
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

	// Kafka writer (topic price_ticks)
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPriceTicks)
	defer writer.Close()

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &service.WSClient{
		URL:       cfg.KrakenWSURL,
		Pair:      cfg.WSPair,
		RESTPair:  cfg.Pair,
		Log:       log,
		Publisher: publisher.NewKafkaPublisher(writer),
	}

	log.Info("price-ingest-service started", zap.String("publish", cfg.TopicPriceTicks))
	client.Start(ctx)
}
