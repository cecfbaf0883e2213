package publisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// KafkaPublisher publica ticks de preço no tópico configurado.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, tick events.PriceTick) error {
	b, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tick.Pair),
		Value: b,
	})
}
