package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/settlement-service/engine"
	shttp "github.com/degenecho/price-game-platform/internal/settlement-service/http"
	"github.com/degenecho/price-game-platform/internal/settlement-service/payout"
	"github.com/degenecho/price-game-platform/internal/settlement-service/price"
	kpub "github.com/degenecho/price-game-platform/internal/settlement-service/producer"
	"github.com/degenecho/price-game-platform/internal/settlement-service/repo"
	"github.com/degenecho/price-game-platform/internal/settlement-service/streak"
	"github.com/degenecho/price-game-platform/internal/settlement-service/tier"
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

	if cfg.SettleSecret == "" {
		log.Warn("SETTLE_SECRET not set; all trigger calls will be rejected")
	}

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (fallback de preço)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writers (round_settled, jackpot_hit)
	settledWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
	defer settledWriter.Close()
	jackpotWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicJackpotHit)
	defer jackpotWriter.Close()

	// Métricas Prometheus do passe de liquidação
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rounds_settled_total", Help: "rodadas liquidadas com vencedor"})
	rollovers := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rounds_rollover_total", Help: "rodadas liquidadas em rollover"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_conflicts_total", Help: "conflitos de idempotência (no-op)"})
	jackpots := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_jackpots_total", Help: "jackpots levados"})
	prometheus.MustRegister(settled, rollovers, conflicts, jackpots)

	// deps
	rounds := repo.NewPostgres(pg)
	streaks := streak.NewPostgres(pg, streak.Policy{
		Threshold:     cfg.Game.JackpotStreak,
		EarlyWindow:   cfg.Game.EarlyWindow,
		MinBet:        cfg.Game.MinStreakBet,
		QualifiedOnly: cfg.Game.QualifiedOnly,
	})
	source := &price.WithFallback{
		Primary:  price.NewKrakenClient(cfg.KrakenRESTURL, cfg.Pair),
		Rdb:      rdb,
		Pair:     cfg.Pair,
		MaxStale: 2 * time.Minute,
		Log:      log,
	}
	publisher := kpub.NewKafkaPublisher(settledWriter, jackpotWriter)

	eng := &engine.Engine{
		Log:        log,
		Prices:     source,
		Rounds:     rounds,
		Streaks:    streaks,
		Publisher:  publisher,
		Classifier: tier.NewClassifier(cfg.Game.StagnateHalfWidth),
		Calc:       payout.NewCalculator(cfg.Game.RakeBps, cfg.Game.TimeWeighted),
		Game:       cfg.Game,

		OnSettled:  settled.Inc,
		OnRollover: rollovers.Inc,
		OnConflict: conflicts.Inc,
		OnJackpot:  jackpots.Inc,
	}

	// HTTP público (trigger)
	api := shttp.NewServer(log, eng, cfg.SettleSecret)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("settlement-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
