package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/notification/notifier"
	"github.com/degenecho/price-game-platform/internal/notification/render"
	"github.com/degenecho/price-game-platform/internal/shared/config"
	"github.com/degenecho/price-game-platform/internal/shared/kafka"
	"github.com/degenecho/price-game-platform/internal/shared/logger"
	"github.com/degenecho/price-game-platform/internal/shared/metrics"
	ev "github.com/degenecho/price-game-platform/pkg/contracts/events"
)

var (
	delivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_delivered_total", Help: "notificações entregues por tipo"}, []string{"kind"})
	deadLettered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_dead_lettered_total", Help: "notificações enviadas pra DLQ"})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.NotifyTo == "" {
		log.Warn("NOTIFY_TO not set; settlement summaries will be dropped")
	}

	mail := notifier.New(cfg.BrevoURL, cfg.BrevoAPIKey, cfg.NotifyFrom)

	// Kafka consumers: round_settled e jackpot_hit
	settledReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "notification-worker")
	defer settledReader.Close()

	jackpotReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicJackpotHit, "notification-worker")
	defer jackpotReader.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotifyDLQ)
	defer dlqWriter.Close()

	prometheus.MustRegister(delivered, deadLettered)

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("notification-worker started",
		zap.String("consume", cfg.TopicRoundSettled+","+cfg.TopicJackpotHit))

	go consumeLoop(ctx, log, settledReader, dlqWriter, "round_settled", func(value []byte) (string, string, error) {
		var e ev.RoundSettled
		if err := json.Unmarshal(value, &e); err != nil {
			return "", "", err
		}
		s, b := render.RoundSettled(e)
		return s, b, nil
	}, mail, cfg.NotifyTo)

	consumeLoop(ctx, log, jackpotReader, dlqWriter, "jackpot_hit", func(value []byte) (string, string, error) {
		var e ev.JackpotHit
		if err := json.Unmarshal(value, &e); err != nil {
			return "", "", err
		}
		s, b := render.JackpotHit(e)
		return s, b, nil
	}, mail, cfg.NotifyTo)
}

// consumeLoop consome um tópico e entrega cada evento por e-mail.
// Retry simples com backoff; depois de esgotar, manda pra DLQ e segue.
func consumeLoop(
	ctx context.Context,
	log *zap.Logger,
	reader *kafkago.Reader,
	dlqWriter *kafkago.Writer,
	kind string,
	renderFn func(value []byte) (subject, body string, err error),
	mail *notifier.Client,
	to string,
) {
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		subject, body, err := renderFn(value)
		if err != nil {
			log.Error("unmarshal notification event", zap.Error(err))
			continue
		}
		if to == "" {
			continue
		}

		if err := deliver(ctx, mail, to, subject, body); err != nil {
			log.Error("notification delivery failed", zap.String("subject", subject), zap.Error(err))
			if derr := kafka.WriteJSON(ctx, dlqWriter, string(key), value); derr != nil {
				log.Error("dlq write failed", zap.Error(derr))
			} else {
				deadLettered.Inc()
			}
			continue
		}
		delivered.WithLabelValues(kind).Inc()
	}
}

// deliver tenta a entrega até 3 vezes antes de desistir.
func deliver(ctx context.Context, mail *notifier.Client, to, subject, body string) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = mail.Send(ctx, to, subject, body); err == nil {
			return nil
		}
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return err
}
