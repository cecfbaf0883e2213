package producer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de liquidação. Do ponto de vista do
// orquestrador é o sink de notificações: fire-and-forget.
type KafkaPublisher struct {
	Settled *kafka.Writer
	Jackpot *kafka.Writer
}

func NewKafkaPublisher(settled, jackpot *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, Jackpot: jackpot}
}

func (p *KafkaPublisher) PublishRoundSettled(ctx context.Context, e events.RoundSettled) error {
	b, _ := json.Marshal(e)
	return p.Settled.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.RoundID, 10)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishJackpotHit(ctx context.Context, e events.JackpotHit) error {
	b, _ := json.Marshal(e)
	return p.Jackpot.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Wallet),
		Value: b,
	})
}
