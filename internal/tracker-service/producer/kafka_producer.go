package producer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	sharedkafka "github.com/radieske/wager-tracker/internal/shared/kafka"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de aposta; a chave é sempre o user_id
// para manter a ordem por usuário na partição
type KafkaPublisher struct {
	Tracked  *kafka.Writer
	Status   *kafka.Writer
	Archived *kafka.Writer
}

func NewKafkaPublisher(tracked, status, archived *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Tracked: tracked, Status: status, Archived: archived}
}

func (p *KafkaPublisher) PublishTracked(ctx context.Context, e events.WagerTracked) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return sharedkafka.WriteJSON(ctx, p.Tracked, e.UserID, e)
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, e events.WagerStatusChanged) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return sharedkafka.WriteJSON(ctx, p.Status, e.UserID, e)
}

func (p *KafkaPublisher) PublishArchived(ctx context.Context, e events.WagerArchived) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return sharedkafka.WriteJSON(ctx, p.Archived, e.UserID, e)
}
