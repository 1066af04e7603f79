package sweeper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/wager"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

// fakeStore devolve os lotes em ordem, como o UPDATE ... LIMIT faria
type fakeStore struct {
	pending []wager.Wager
	limits  []int
	err     error
}

func (f *fakeStore) ArchiveDecided(ctx context.Context, limit int) ([]wager.Wager, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	n := limit
	if n > len(f.pending) {
		n = len(f.pending)
	}
	out := f.pending[:n]
	f.pending = f.pending[n:]
	for i := range out {
		out[i].Archived = true
	}
	return out, nil
}

type fakePublisher struct {
	failFor map[string]int // wagerID -> quantas falhas antes de aceitar
	sent    []events.WagerArchived
}

func (f *fakePublisher) PublishArchived(ctx context.Context, e events.WagerArchived) error {
	if f.failFor[e.WagerID] > 0 {
		f.failFor[e.WagerID]--
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, e)
	return nil
}

func decided(n int) []wager.Wager {
	out := make([]wager.Wager, n)
	for i := range out {
		out[i] = wager.Wager{ID: fmt.Sprintf("w%d", i), UserID: "u1", Status: wager.StatusWon}
	}
	return out
}

func TestRunOnceBatches(t *testing.T) {
	store := &fakeStore{pending: decided(5)}
	pub := &fakePublisher{}
	archived := 0
	s := &Sweeper{Log: zap.NewNop(), Store: store, Events: pub, BatchSize: 2,
		OnArchived: func(n int) { archived += n }}

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 5 || archived != 5 || len(pub.sent) != 5 {
		t.Errorf("n=%d archived=%d sent=%d", n, archived, len(pub.sent))
	}
	// 2 + 2 + 1: o último lote incompleto encerra a varredura
	if len(store.limits) != 3 {
		t.Errorf("batches = %v", store.limits)
	}
	for _, e := range pub.sent {
		if e.Status != "won" || e.Reacted || e.UserID != "u1" {
			t.Errorf("event = %+v", e)
		}
	}
}

func TestRunOnceNothingToArchive(t *testing.T) {
	store := &fakeStore{}
	s := &Sweeper{Log: zap.NewNop(), Store: store, Events: &fakePublisher{}}
	n, err := s.RunOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	if store.limits[0] != DefaultBatchSize {
		t.Errorf("limit = %d, want default %d", store.limits[0], DefaultBatchSize)
	}
}

func TestRunOnceStoreError(t *testing.T) {
	var stages []string
	s := &Sweeper{Log: zap.NewNop(), Store: &fakeStore{err: errors.New("deadlock")}, Events: &fakePublisher{},
		OnError: func(stage string) { stages = append(stages, stage) }}
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(stages) != 1 || stages[0] != "db" {
		t.Errorf("stages = %v", stages)
	}
}

func TestPublishRetryAndDLQ(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantSent int
		wantDLQ  int
	}{
		{"recovers within retries", 2, 1, 0},
		{"exhausts retries", 5, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{failFor: map[string]int{"w0": tt.failures}}
			var dlq []any
			var stages []string
			s := &Sweeper{
				Log:     zap.NewNop(),
				Store:   &fakeStore{pending: decided(1)},
				Events:  pub,
				Retries: 3,
				Backoff: time.Millisecond,
				DLQ: func(ctx context.Context, key string, payload any, cause error) error {
					dlq = append(dlq, payload)
					return nil
				},
				OnError: func(stage string) { stages = append(stages, stage) },
			}
			if _, err := s.RunOnce(context.Background()); err != nil {
				t.Fatalf("RunOnce: %v", err)
			}
			if len(pub.sent) != tt.wantSent || len(dlq) != tt.wantDLQ {
				t.Errorf("sent=%d dlq=%d", len(pub.sent), len(dlq))
			}
			if tt.wantDLQ > 0 {
				if e, ok := dlq[0].(events.WagerArchived); !ok || e.WagerID != "w0" {
					t.Errorf("dlq payload = %+v", dlq[0])
				}
				if len(stages) != 1 || stages[0] != "publish" {
					t.Errorf("stages = %v", stages)
				}
			}
		})
	}
}

func TestScheduleInvalidSpec(t *testing.T) {
	s := &Sweeper{Log: zap.NewNop(), Store: &fakeStore{}, Events: &fakePublisher{}}
	if err := s.Schedule(context.Background(), "not a cron spec"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestScheduleStopsWithContext(t *testing.T) {
	store := &fakeStore{pending: decided(3)}
	pub := &fakePublisher{}
	s := &Sweeper{Log: zap.NewNop(), Store: store, Events: pub}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	if err := s.Schedule(ctx, "* * * * * *"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(pub.sent) != 3 {
		t.Errorf("sent = %d, want 3 after at least one tick", len(pub.sent))
	}
}
