package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/stats-projector/pubsub"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

// Reader é o subconjunto de *kafka.Reader usado aqui
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

type Broadcaster interface {
	Publish(ctx context.Context, u pubsub.StatsUpdate) error
}

// DeadLetterFunc recebe mensagens que não dá para processar (payload inválido)
type DeadLetterFunc func(ctx context.Context, m kafka.Message, cause error) error

var errNoUser = errors.New("event without user_id")

// Processor consome os eventos de aposta, invalida o cache de estatísticas do
// usuário e avisa o WebSocket via Redis Pub/Sub.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log         *zap.Logger
	Reader      Reader
	Cache       Invalidator
	Broadcaster Broadcaster
	DLQ         DeadLetterFunc // opcional

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Run inicia o loop principal de consumo; só retorna com ctx cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem. Cache e broadcast são best effort: a próxima
// leitura recalcula de qualquer forma quando o TTL expira.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var ref events.UserRef
	err := json.Unmarshal(m.Value, &ref)
	if err == nil && ref.UserID == "" {
		err = errNoUser
	}
	if err != nil {
		p.Log.Warn("invalid message", zap.String("topic", m.Topic), zap.Error(err))
		p.fail("decode")
		if p.DLQ != nil {
			if derr := p.DLQ(ctx, m, err); derr != nil {
				p.Log.Error("dlq write", zap.Error(derr))
				p.fail("dlq")
			}
		}
		return
	}

	if err := p.Cache.InvalidateUser(ctx, ref.UserID); err != nil {
		p.Log.Warn("stats cache invalidate failed", zap.String("userId", ref.UserID), zap.Error(err))
		p.fail("cache")
	}

	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	upd := pubsub.StatsUpdate{
		UserID:  ref.UserID,
		Event:   m.Topic,
		WagerID: ref.WagerID,
		Payload: json.RawMessage(m.Value),
	}
	if err := p.Broadcaster.Publish(bctx, upd); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.Error(err))
		p.fail("broadcast")
	}
}
