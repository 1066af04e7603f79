package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/wager-tracker/internal/stats"
)

// Cache guarda o Summary pronto por (usuário, janela).
// O stats-projector invalida as chaves do usuário a cada evento de aposta.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func Key(userID string, w stats.Window) string {
	return fmt.Sprintf("stats:%s:%d", userID, w)
}

func (c *Cache) Get(ctx context.Context, userID string, w stats.Window) (stats.Summary, bool, error) {
	b, err := c.R.Get(ctx, Key(userID, w)).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats.Summary{}, false, nil
	}
	if err != nil {
		return stats.Summary{}, false, err
	}
	var s stats.Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return stats.Summary{}, false, err
	}
	return s, true, nil
}

func (c *Cache) Set(ctx context.Context, userID string, w stats.Window, s stats.Summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, Key(userID, w), b, c.TTL).Err()
}

// InvalidateUser apaga todas as janelas do usuário num único DEL
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	keys := make([]string, 0, len(stats.Windows))
	for _, w := range stats.Windows {
		keys = append(keys, Key(userID, w))
	}
	return c.R.Del(ctx, keys...).Err()
}
