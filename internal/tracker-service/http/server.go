package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/extraction"
	"github.com/radieske/wager-tracker/internal/tracker-service/dto"
	"github.com/radieske/wager-tracker/internal/tracker-service/repo"
	"github.com/radieske/wager-tracker/internal/tracker-service/service"
	"github.com/radieske/wager-tracker/internal/wager"
)

// Tracker é o que o servidor usa de service.Tracker
type Tracker interface {
	Track(ctx context.Context, in service.TrackInput) (service.TrackResult, error)
	List(ctx context.Context, userID string) ([]wager.Wager, error)
	SetStatus(ctx context.Context, id, status string) (wager.Wager, error)
	SetLegStatus(ctx context.Context, wagerID, legID, status string) (wager.Wager, error)
	MarkArchiveReacted(ctx context.Context, id string) (wager.Wager, error)
	Delete(ctx context.Context, id string) error
	MatchText(ctx context.Context, leagueKey, text string) ([]catalog.Match, error)
	RefreshCatalog(ctx context.Context) (int, error)
}

type Server struct {
	log *zap.Logger
	svc Tracker
}

func NewServer(log *zap.Logger, svc Tracker) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// visão pode levar até 60s
	r.Use(chimiddleware.Timeout(90 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/wagers/track", s.track)
		r.Post("/wagers/ingest", s.ingest)
		r.Get("/users/{userID}/wagers", s.listWagers)
		r.Patch("/wagers/{id}/status", s.setStatus)
		r.Patch("/wagers/{id}/legs/{legID}/status", s.setLegStatus)
		r.Post("/wagers/{id}/archive-reacted", s.archiveReacted)
		r.Delete("/wagers/{id}", s.deleteWager)

		r.Get("/catalog/match", s.matchText)
		r.Post("/catalog/refresh", s.refreshCatalog)
	})
	return r
}

func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	s.doTrack(w, r, service.TrackInput{UserID: req.UserID, ImageURL: req.ImageURL, ContextHint: req.ContextHint})
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.RawOutput == "" {
		writeError(w, http.StatusBadRequest, "raw_output required")
		return
	}
	s.doTrack(w, r, service.TrackInput{
		UserID:      req.UserID,
		ImageURL:    req.ImageURL,
		ContextHint: req.ContextHint,
		RawOutput:   req.RawOutput,
	})
}

func (s *Server) doTrack(w http.ResponseWriter, r *http.Request, in service.TrackInput) {
	res, err := s.svc.Track(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	notes := res.Notes
	if notes == nil {
		notes = []string{}
	}
	writeJSON(w, http.StatusCreated, dto.TrackResponse{Wager: res.Wager, Notes: notes})
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ws, err := s.svc.List(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ws == nil {
		ws = []wager.Wager{}
	}
	writeJSON(w, http.StatusOK, dto.WagerListResponse{UserID: userID, Wagers: ws})
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	wg, err := s.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wg)
}

func (s *Server) setLegStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	wg, err := s.svc.SetLegStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "legID"), req.Status)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wg)
}

func (s *Server) archiveReacted(w http.ResponseWriter, r *http.Request) {
	wg, err := s.svc.MarkArchiveReacted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wg)
}

func (s *Server) deleteWager(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) matchText(w http.ResponseWriter, r *http.Request) {
	league := r.URL.Query().Get("league")
	text := r.URL.Query().Get("text")
	if league == "" || text == "" {
		writeError(w, http.StatusBadRequest, "league and text required")
		return
	}
	ms, err := s.svc.MatchText(r.Context(), league, text)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ms == nil {
		ms = []catalog.Match{}
	}
	writeJSON(w, http.StatusOK, dto.MatchResponse{League: league, Text: text, Matches: ms})
}

func (s *Server) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.RefreshCatalog(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RefreshResponse{Leagues: n})
}

// fail traduz erros de domínio em status HTTP
func (s *Server) fail(w http.ResponseWriter, err error) {
	var failure *extraction.Failure
	switch {
	case errors.As(err, &failure):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: failure.Error(), Raw: failure.Raw})
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrLegNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownLeague):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicate), errors.Is(err, repo.ErrNotArchived):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCatalogUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, dto.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
