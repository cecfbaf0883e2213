package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	bhttp "github.com/degenecho/price-game-platform/internal/bet-service/http"
	kpub "github.com/degenecho/price-game-platform/internal/bet-service/producer"
	"github.com/degenecho/price-game-platform/internal/bet-service/repo"
	"github.com/degenecho/price-game-platform/internal/shared/config"
	"github.com/degenecho/price-game-platform/internal/shared/db"
	sharedkafka "github.com/degenecho/price-game-platform/internal/shared/kafka"
	"github.com/degenecho/price-game-platform/internal/shared/logger"
	"github.com/degenecho/price-game-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer (topic bet_placed)
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg)
	publ := kpub.NewKafkaPublisher(writer)

	// HTTP público
	api := &bhttp.Server{
		Log:            log,
		Repo:           repository,
		JackpotContrib: float64(cfg.Game.JackpotContribBps) / 10000,
		Publ:           publ,
	}
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("bet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
