package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/degenecho/price-game-platform/internal/settlement-service/price"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// RedisCache guarda o último tick de cada par. É a mesma chave que o
// settlement-service lê como fallback quando o REST da Kraken falha.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// SetCurrent armazena o tick corrente do par com TTL definido.
func (r *RedisCache) SetCurrent(ctx context.Context, tick events.PriceTick) error {
	b, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, price.CacheKey(tick.Pair), b, r.TTL).Err()
}
