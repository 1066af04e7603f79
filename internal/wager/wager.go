package wager

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-tracker/internal/odds"
)

// Status é o estado de uma aposta persistida
type Status string

const (
	StatusOpen    Status = "open"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusRemoved Status = "removed"
)

// ParseStatus normaliza e valida um status vindo de fora (API, banco)
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusWon, StatusLost, StatusRemoved:
		return st, true
	}
	return "", false
}

// Decided indica won/lost
func (s Status) Decided() bool { return s == StatusWon || s == StatusLost }

// ApplyStatus implementa a política de toggle da UI:
// pedir o status atual volta a aposta para open; qualquer outro valor é aplicado.
func ApplyStatus(current, requested Status) Status {
	if current == requested {
		return StatusOpen
	}
	return requested
}

// LegStatus é o estado de uma perna de parlay
type LegStatus string

const (
	LegOpen LegStatus = "open"
	LegWon  LegStatus = "won"
	LegLost LegStatus = "lost"
)

// ParseLegStatus retorna open para qualquer valor desconhecido
func ParseLegStatus(s string) LegStatus {
	switch st := LegStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case LegWon, LegLost:
		return st
	}
	return LegOpen
}

// ApplyLegStatus segue o mesmo toggle de ApplyStatus
func ApplyLegStatus(current LegStatus, requested string) LegStatus {
	if LegStatus(strings.ToLower(strings.TrimSpace(requested))) == current {
		return LegOpen
	}
	return ParseLegStatus(requested)
}

type Leg struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      LegStatus `json:"status"`
}

// Matchup referencia liga + times do catálogo. Só existe completo.
type Matchup struct {
	LeagueID    int64      `json:"league_id"`
	HomeTeamID  int64      `json:"home_team_id"`
	AwayTeamID  int64      `json:"away_team_id"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Wager é o registro persistido de uma aposta
type Wager struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Line           string          `json:"line"`
	ImageURL       string          `json:"image_url,omitempty"`
	Status         Status          `json:"status"`
	IsFreePlay     bool            `json:"is_free_play"`
	IsLiveBet      bool            `json:"is_live_bet"`
	Archived       bool            `json:"archived"`
	ArchiveReacted bool            `json:"archive_reacted"`
	CreatedAt      time.Time       `json:"created_at"`
	ResultedAt     *time.Time      `json:"resulted_at,omitempty"`
	Legs           []Leg           `json:"legs"`
	Matchup        *Matchup        `json:"matchup,omitempty"`
}

// Payout é o lucro potencial derivado da linha; ok=false quando a linha não tem odd válida
func (w Wager) Payout() (decimal.Decimal, bool) {
	return odds.Payout(w.Amount, w.Line)
}

// ProfitDelta é a contribuição da aposta no lucro acumulado:
// won => payout, lost => -amount (0 em free play), open/removed => 0
func (w Wager) ProfitDelta() decimal.Decimal {
	switch w.Status {
	case StatusWon:
		if p, ok := w.Payout(); ok {
			return p
		}
		return decimal.Zero
	case StatusLost:
		if w.IsFreePlay {
			return decimal.Zero
		}
		return w.Amount.Neg()
	}
	return decimal.Zero
}
