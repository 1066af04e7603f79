package dedup

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard evita registrar duas vezes o mesmo print do mesmo usuário
// (reenvio de mensagem, retry do cliente)
type Guard struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewGuard(r *redis.Client, ttl time.Duration) *Guard { return &Guard{Rdb: r, TTL: ttl} }

// chave "wager:seen:{userID}:{sha1(imageURL)}"
func key(userID, imageURL string) string {
	sum := sha1.Sum([]byte(imageURL))
	return fmt.Sprintf("wager:seen:%s:%s", userID, hex.EncodeToString(sum[:]))
}

// Claim devolve true na primeira vez que (userID, imageURL) aparece dentro do TTL
func (g *Guard) Claim(ctx context.Context, userID, imageURL string) (bool, error) {
	return g.Rdb.SetNX(ctx, key(userID, imageURL), time.Now().Unix(), g.TTL).Result()
}

// Release libera a chave quando o registro falha depois do Claim
func (g *Guard) Release(ctx context.Context, userID, imageURL string) error {
	return g.Rdb.Del(ctx, key(userID, imageURL)).Err()
}
