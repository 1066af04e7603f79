package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/stats"
	"github.com/radieske/wager-tracker/internal/wager"
)

type WagerSource interface {
	WagersForStats(ctx context.Context, userID string) ([]wager.Wager, error)
}

type SummaryCache interface {
	Get(ctx context.Context, userID string, w stats.Window) (stats.Summary, bool, error)
	Set(ctx context.Context, userID string, w stats.Window, s stats.Summary) error
}

// API expõe as estatísticas por usuário.
// Lê do cache (Redis) e, na falta, agrega a partir do Postgres.
type API struct {
	Log   *zap.Logger
	Repo  WagerSource
	Cache SummaryCache // opcional
	Loc   *time.Location
	Now   func() time.Time
	WS    http.HandlerFunc // opcional, montado em /ws
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/users/{userID}/stats", a.getStats)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// getStats: ?window=30|90|180|365 (padrão 30)
func (a *API) getStats(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userID required"})
		return
	}
	window := stats.ParseWindow(r.URL.Query().Get("window"))

	if a.Cache != nil {
		s, ok, err := a.Cache.Get(r.Context(), userID, window)
		if err != nil {
			a.Log.Warn("stats cache get failed", zap.String("userId", userID), zap.Error(err))
		} else if ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	ws, err := a.Repo.WagersForStats(r.Context(), userID)
	if err != nil {
		a.Log.Error("load wagers", zap.String("userId", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	loc := a.Loc
	if loc == nil {
		loc = time.UTC
	}
	s := stats.Summarize(ws, window, a.now(), loc)
	if s.Skipped > 0 {
		a.Log.Warn("malformed wagers skipped", zap.String("userId", userID), zap.Int("skipped", s.Skipped))
	}

	if a.Cache != nil {
		if err := a.Cache.Set(r.Context(), userID, window, s); err != nil {
			a.Log.Warn("stats cache set failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, s)
}
