package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/extraction"
	"github.com/radieske/wager-tracker/internal/schedule"
	"github.com/radieske/wager-tracker/internal/wager"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrDuplicate          = errors.New("screenshot already tracked")
	ErrUnknownLeague      = errors.New("league not in catalog")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// StatusDeleted é publicado em WagerStatusChanged.To quando a aposta é apagada
const StatusDeleted = "deleted"

type WagerStore interface {
	CreateWager(ctx context.Context, w *wager.Wager) error
	GetWager(ctx context.Context, id string) (wager.Wager, error)
	ListWagersForUser(ctx context.Context, userID string) ([]wager.Wager, error)
	UpdateStatus(ctx context.Context, id string, requested wager.Status) (before, after wager.Wager, err error)
	UpdateLegStatus(ctx context.Context, wagerID, legID, requested string) (wager.Leg, wager.LegStatus, error)
	MarkArchiveReacted(ctx context.Context, id string) (wager.Wager, error)
	Delete(ctx context.Context, id string) (userID string, err error)
}

type Extractor interface {
	Extract(ctx context.Context, imageURL, hint string) (string, error)
}

type MatchupResolver interface {
	Resolve(ctx context.Context, d extraction.Draft) (*wager.Matchup, []string)
}

type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
	Refresh(ctx context.Context, force bool) (*catalog.Snapshot, error)
}

type ScheduleProvider interface {
	ScheduleForDay(ctx context.Context, leagueKey string, day time.Time) ([]schedule.GameCard, error)
}

type Publisher interface {
	PublishTracked(ctx context.Context, e events.WagerTracked) error
	PublishStatusChanged(ctx context.Context, e events.WagerStatusChanged) error
	PublishArchived(ctx context.Context, e events.WagerArchived) error
}

type DedupGuard interface {
	Claim(ctx context.Context, userID, imageURL string) (bool, error)
	Release(ctx context.Context, userID, imageURL string) error
}

// Tracker orquestra o registro de apostas: visão -> extração -> matchup ->
// agenda -> banco -> evento. Schedule e Dedup são opcionais.
type Tracker struct {
	Log      *zap.Logger
	Store    WagerStore
	Vision   Extractor
	Matchups MatchupResolver
	Catalog  CatalogSource
	Schedule ScheduleProvider
	Events   Publisher
	Dedup    DedupGuard
	Loc      *time.Location
	Now      func() time.Time

	OnTracked          func() // métricas
	OnExtractionFailed func()
	OnUnresolved       func()
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) loc() *time.Location {
	if t.Loc != nil {
		return t.Loc
	}
	return time.UTC
}

type TrackInput struct {
	UserID      string
	ImageURL    string
	ContextHint string
	// RawOutput preenchido pula a chamada ao serviço de visão
	RawOutput string
}

type TrackResult struct {
	Wager wager.Wager
	Notes []string
}

// Track registra uma aposta a partir de um print (ou da saída bruta do modelo).
// Falha de extração volta como *extraction.Failure.
func (t *Tracker) Track(ctx context.Context, in TrackInput) (TrackResult, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.UserID == "" {
		return TrackResult{}, fmt.Errorf("%w: user_id required", ErrInvalidInput)
	}
	if in.ImageURL == "" && strings.TrimSpace(in.RawOutput) == "" {
		return TrackResult{}, fmt.Errorf("%w: image_url or raw_output required", ErrInvalidInput)
	}

	claimed := false
	if t.Dedup != nil && in.ImageURL != "" {
		first, err := t.Dedup.Claim(ctx, in.UserID, in.ImageURL)
		if err != nil {
			// Redis fora não impede o registro
			t.Log.Warn("dedup claim failed", zap.Error(err))
		} else if !first {
			return TrackResult{}, ErrDuplicate
		} else {
			claimed = true
		}
	}

	res, err := t.track(ctx, in)
	if err != nil && claimed {
		if rerr := t.Dedup.Release(ctx, in.UserID, in.ImageURL); rerr != nil {
			t.Log.Warn("dedup release failed", zap.Error(rerr))
		}
	}
	return res, err
}

func (t *Tracker) track(ctx context.Context, in TrackInput) (TrackResult, error) {
	raw := in.RawOutput
	if strings.TrimSpace(raw) == "" {
		out, err := t.Vision.Extract(ctx, in.ImageURL, in.ContextHint)
		if err != nil {
			return TrackResult{}, fmt.Errorf("vision extract: %w", err)
		}
		raw = out
	}

	draft, err := extraction.Parse(raw, in.ContextHint)
	if err != nil {
		if t.OnExtractionFailed != nil {
			t.OnExtractionFailed()
		}
		return TrackResult{}, err
	}

	m, notes := t.Matchups.Resolve(ctx, draft)
	if m == nil {
		if t.OnUnresolved != nil {
			t.OnUnresolved()
		}
	} else {
		t.enrichSchedule(ctx, draft.LeagueKey, m)
	}

	w := wager.Wager{
		UserID:      in.UserID,
		Description: extraction.DisplayDescription(draft),
		Amount:      draft.Amount,
		Line:        draft.Line,
		ImageURL:    in.ImageURL,
		Status:      wager.StatusOpen,
		IsFreePlay:  draft.IsFreePlay,
		IsLiveBet:   draft.IsLiveBet,
		Matchup:     m,
		Legs:        make([]wager.Leg, 0, len(draft.Legs)),
	}
	for _, l := range draft.Legs {
		w.Legs = append(w.Legs, wager.Leg{Description: l.Description, Status: l.Status})
	}

	if err := t.Store.CreateWager(ctx, &w); err != nil {
		return TrackResult{}, fmt.Errorf("create wager: %w", err)
	}
	if t.OnTracked != nil {
		t.OnTracked()
	}

	if err := t.Events.PublishTracked(ctx, events.WagerTracked{
		WagerID:     w.ID,
		UserID:      w.UserID,
		Description: w.Description,
		Amount:      w.Amount,
		Line:        w.Line,
		IsLiveBet:   w.IsLiveBet,
		IsFreePlay:  w.IsFreePlay,
		LegCount:    len(w.Legs),
		Matched:     w.Matchup != nil,
		Ts:          t.now().UTC(),
	}); err != nil {
		t.Log.Warn("publish wager_tracked failed", zap.String("wagerId", w.ID), zap.Error(err))
	}

	t.Log.Info("wager tracked",
		zap.String("wagerId", w.ID),
		zap.String("userId", w.UserID),
		zap.String("line", w.Line),
		zap.Int("legs", len(w.Legs)),
		zap.Bool("matched", w.Matchup != nil),
		zap.Strings("notes", notes),
	)
	return TrackResult{Wager: w, Notes: notes}, nil
}

// enrichSchedule preenche scheduled_at com o jogo de hoje entre os dois times.
// Qualquer falha só é logada.
func (t *Tracker) enrichSchedule(ctx context.Context, leagueKey string, m *wager.Matchup) {
	if t.Schedule == nil || t.Catalog == nil {
		return
	}
	snap, _ := t.Catalog.Snapshot(ctx)
	if snap == nil {
		return
	}
	ix := snap.Index(m.LeagueID)
	home, okHome := ix.Team(m.HomeTeamID)
	away, okAway := ix.Team(m.AwayTeamID)
	if !okHome || !okAway || home.ExternalID == "" || away.ExternalID == "" {
		return
	}

	games, err := t.Schedule.ScheduleForDay(ctx, leagueKey, t.now().In(t.loc()))
	if err != nil {
		t.Log.Debug("schedule lookup failed", zap.String("league", leagueKey), zap.Error(err))
		return
	}
	if g, ok := schedule.FindGame(games, home.ExternalID, away.ExternalID); ok && g.StartTime != nil {
		start := g.StartTime.UTC()
		m.ScheduledAt = &start
	}
}

func (t *Tracker) List(ctx context.Context, userID string) ([]wager.Wager, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id required", ErrInvalidInput)
	}
	return t.Store.ListWagersForUser(ctx, userID)
}

func (t *Tracker) Get(ctx context.Context, id string) (wager.Wager, error) {
	return t.Store.GetWager(ctx, id)
}

// SetStatus aplica o toggle de status (pedir o status atual volta para open)
func (t *Tracker) SetStatus(ctx context.Context, id, status string) (wager.Wager, error) {
	requested, ok := wager.ParseStatus(status)
	if !ok {
		return wager.Wager{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	before, after, err := t.Store.UpdateStatus(ctx, id, requested)
	if err != nil {
		return wager.Wager{}, err
	}

	if err := t.Events.PublishStatusChanged(ctx, events.WagerStatusChanged{
		WagerID:    after.ID,
		UserID:     after.UserID,
		From:       string(before.Status),
		To:         string(after.Status),
		ResultedAt: after.ResultedAt,
		Ts:         t.now().UTC(),
	}); err != nil {
		t.Log.Warn("publish wager_status_changed failed", zap.String("wagerId", id), zap.Error(err))
	}
	return t.Store.GetWager(ctx, id)
}

// SetLegStatus aplica o mesmo toggle numa perna; status desconhecido vira open
func (t *Tracker) SetLegStatus(ctx context.Context, wagerID, legID, status string) (wager.Wager, error) {
	leg, from, err := t.Store.UpdateLegStatus(ctx, wagerID, legID, status)
	if err != nil {
		return wager.Wager{}, err
	}
	w, err := t.Store.GetWager(ctx, wagerID)
	if err != nil {
		return wager.Wager{}, err
	}
	if err := t.Events.PublishStatusChanged(ctx, events.WagerStatusChanged{
		WagerID: wagerID,
		UserID:  w.UserID,
		LegID:   leg.ID,
		From:    string(from),
		To:      string(leg.Status),
		Ts:      t.now().UTC(),
	}); err != nil {
		t.Log.Warn("publish leg status failed", zap.String("wagerId", wagerID), zap.Error(err))
	}
	return w, nil
}

func (t *Tracker) MarkArchiveReacted(ctx context.Context, id string) (wager.Wager, error) {
	w, err := t.Store.MarkArchiveReacted(ctx, id)
	if err != nil {
		return wager.Wager{}, err
	}
	if err := t.Events.PublishArchived(ctx, events.WagerArchived{
		WagerID: w.ID,
		UserID:  w.UserID,
		Status:  string(w.Status),
		Reacted: true,
		Ts:      t.now().UTC(),
	}); err != nil {
		t.Log.Warn("publish wager_archived failed", zap.String("wagerId", id), zap.Error(err))
	}
	return w, nil
}

func (t *Tracker) Delete(ctx context.Context, id string) error {
	userID, err := t.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := t.Events.PublishStatusChanged(ctx, events.WagerStatusChanged{
		WagerID: id,
		UserID:  userID,
		To:      StatusDeleted,
		Ts:      t.now().UTC(),
	}); err != nil {
		t.Log.Warn("publish wager deletion failed", zap.String("wagerId", id), zap.Error(err))
	}
	return nil
}

// MatchText aponta quais times do catálogo uma descrição livre cita (até dois)
func (t *Tracker) MatchText(ctx context.Context, leagueKey, text string) ([]catalog.Match, error) {
	snap, err := t.Catalog.Snapshot(ctx)
	if snap == nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	league, ok := snap.League(leagueKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLeague, leagueKey)
	}
	return snap.Index(league.ID).MatchText(text, catalog.DefaultWeights), nil
}

// RefreshCatalog força a recarga do catálogo; devolve quantas ligas foram carregadas
func (t *Tracker) RefreshCatalog(ctx context.Context) (int, error) {
	snap, err := t.Catalog.Refresh(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return len(snap.Leagues()), nil
}
