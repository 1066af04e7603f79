package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

// Publish envia a atualização para o canal do stats-service/ws
func (b *RedisBroadcaster) Publish(ctx context.Context, u StatsUpdate) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, raw).Err()
}

// StatsUpdate avisa que as estatísticas de um usuário mudaram.
// Payload é o evento Kafka original, repassado sem reinterpretar.
type StatsUpdate struct {
	UserID  string          `json:"userId"`
	Event   string          `json:"event"` // tópico de origem
	WagerID string          `json:"wagerId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
