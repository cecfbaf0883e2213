package price

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// Source é a dependência de preço da liquidação.
type Source interface {
	CurrentPrice(ctx context.Context) (float64, error)
}

// CacheKey é a chave do último tick gravada pelo price-processor-worker.
func CacheKey(pair string) string { return "price:current:" + pair }

// WithFallback tenta a fonte primária (REST) e, se falhar, usa o último
// tick cacheado no Redis desde que ainda esteja fresco. As duas falhando,
// a invocação de liquidação aborta sem tocar estado.
type WithFallback struct {
	Primary  Source
	Rdb      *redis.Client
	Pair     string
	MaxStale time.Duration
	Log      *zap.Logger
}

func (s *WithFallback) CurrentPrice(ctx context.Context) (float64, error) {
	p, err := s.Primary.CurrentPrice(ctx)
	if err == nil {
		return p, nil
	}
	s.Log.Warn("primary price source failed, trying cache", zap.Error(err))

	raw, rerr := s.Rdb.Get(ctx, CacheKey(s.Pair)).Result()
	if rerr != nil {
		return 0, fmt.Errorf("price unavailable: %w", err)
	}
	var tick events.PriceTick
	if jerr := json.Unmarshal([]byte(raw), &tick); jerr != nil {
		return 0, fmt.Errorf("decode cached tick: %w", jerr)
	}
	age := time.Since(time.UnixMilli(tick.TsUnixMs))
	if age > s.MaxStale {
		return 0, fmt.Errorf("cached tick too old (%s): %w", age.Truncate(time.Second), err)
	}

	s.Log.Info("using cached price tick", zap.Float64("price", tick.Price), zap.Duration("age", age))
	return tick.Price, nil
}
