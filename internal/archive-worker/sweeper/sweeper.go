package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/wager"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

const DefaultBatchSize = 500

// Store é o lado do repositório que a varredura usa (repo.Postgres)
type Store interface {
	ArchiveDecided(ctx context.Context, limit int) ([]wager.Wager, error)
}

type Publisher interface {
	PublishArchived(ctx context.Context, e events.WagerArchived) error
}

// DeadLetterFunc recebe o evento que não pôde ser publicado
type DeadLetterFunc func(ctx context.Context, key string, payload any, cause error) error

// Sweeper arquiva apostas decididas (won/lost) e avisa o resto do sistema.
// O arquivamento no banco é um UPDATE por lote; o evento sai depois, por aposta.
type Sweeper struct {
	Log       *zap.Logger
	Store     Store
	Events    Publisher
	DLQ       DeadLetterFunc // opcional
	BatchSize int
	Retries   int
	Backoff   time.Duration
	Now       func() time.Time

	OnSwept    func()
	OnArchived func(n int)
	OnError    func(stage string)
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sweeper) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}

// RunOnce arquiva lotes até sobrar menos que BatchSize; devolve o total arquivado
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if s.OnSwept != nil {
		s.OnSwept()
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ws, err := s.Store.ArchiveDecided(ctx, batch)
		if err != nil {
			s.fail("db")
			return total, fmt.Errorf("archive decided: %w", err)
		}
		for _, w := range ws {
			s.publish(ctx, w)
		}
		total += len(ws)
		if s.OnArchived != nil && len(ws) > 0 {
			s.OnArchived(len(ws))
		}
		if len(ws) < batch {
			return total, nil
		}
	}
}

// publish tenta Retries vezes com backoff linear; esgotadas, manda para a DLQ
func (s *Sweeper) publish(ctx context.Context, w wager.Wager) {
	ev := events.WagerArchived{
		WagerID: w.ID,
		UserID:  w.UserID,
		Status:  string(w.Status),
		Ts:      s.now().UTC(),
	}

	err := s.Events.PublishArchived(ctx, ev)
	for i := 0; err != nil && i < s.Retries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(i+1) * s.Backoff):
		}
		err = s.Events.PublishArchived(ctx, ev)
	}
	if err == nil {
		return
	}

	s.fail("publish")
	s.Log.Error("publish wager_archived", zap.String("wagerId", w.ID), zap.Error(err))
	if s.DLQ == nil {
		return
	}
	if derr := s.DLQ(ctx, w.UserID, ev, err); derr != nil {
		s.fail("dlq")
		s.Log.Error("dlq write", zap.String("wagerId", w.ID), zap.Error(derr))
	}
}

// Schedule registra a varredura no cron (expressão com segundos) e bloqueia até ctx acabar.
// Execuções sobrepostas são puladas.
func (s *Sweeper) Schedule(ctx context.Context, spec string) error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		n, err := s.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.Log.Error("archive sweep", zap.Error(err))
			return
		}
		if n > 0 {
			s.Log.Info("archive sweep", zap.Int("archived", n))
		}
	}); err != nil {
		return fmt.Errorf("cron spec %q: %w", spec, err)
	}

	s.Log.Info("cron started", zap.String("spec", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.Log.Info("cron stopped")
	return nil
}
