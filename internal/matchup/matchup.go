package matchup

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/extraction"
	"github.com/radieske/wager-tracker/internal/wager"
)

const (
	NoteLeagueUnknown  = "league not identified"
	NoteMultipleLegs   = "multiple legs — no single matchup"
	NoteLeagueNotFound = "league not in catalog"
	NoteCatalogMissing = "catalog unavailable"
	NoteCouldNotMap    = "could not map "
)

// Resolve liga + times do draft contra um snapshot do catálogo.
// Só devolve matchup completo; qualquer lacuna vira nil + notas.
func Resolve(snap *catalog.Snapshot, d extraction.Draft) (*wager.Matchup, []string) {
	if strings.TrimSpace(d.LeagueKey) == "" {
		return nil, []string{NoteLeagueUnknown}
	}
	if d.IsParlay() {
		return nil, []string{NoteMultipleLegs}
	}
	league, ok := snap.League(d.LeagueKey)
	if !ok {
		return nil, []string{NoteLeagueNotFound}
	}

	ix := snap.Index(league.ID)
	homeID, okHome := ix.Resolve(d.HomeTeam)
	awayID, okAway := ix.Resolve(d.AwayTeam)

	var missing []string
	if !okHome {
		missing = append(missing, "home team")
	}
	if !okAway {
		missing = append(missing, "away team")
	}
	if len(missing) > 0 {
		return nil, []string{NoteCouldNotMap + strings.Join(missing, ", ")}
	}

	return &wager.Matchup{
		LeagueID:   league.ID,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
	}, nil
}

// SnapshotSource é satisfeito por *catalog.Cache
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Resolver busca o snapshot corrente e aplica Resolve sobre ele
type Resolver struct {
	Catalog SnapshotSource
	Log     *zap.Logger
}

func NewResolver(src SnapshotSource, log *zap.Logger) *Resolver {
	return &Resolver{Catalog: src, Log: log}
}

// Resolve usa um único snapshot por chamada. Erro de recarga com snapshot
// antigo disponível é só logado.
func (r *Resolver) Resolve(ctx context.Context, d extraction.Draft) (*wager.Matchup, []string) {
	snap, err := r.Catalog.Snapshot(ctx)
	if err != nil {
		if snap == nil {
			r.Log.Error("catalog unavailable", zap.Error(err))
			return nil, []string{NoteCatalogMissing}
		}
		r.Log.Warn("catalog refresh failed, using stale snapshot",
			zap.Time("loaded_at", snap.LoadedAt), zap.Error(err))
	}
	return Resolve(snap, d)
}
