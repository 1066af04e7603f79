package dto

import (
	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/wager"
)

type TrackResponse struct {
	Wager wager.Wager `json:"wager"`
	Notes []string    `json:"notes"`
}

type WagerListResponse struct {
	UserID string        `json:"user_id"`
	Wagers []wager.Wager `json:"wagers"`
}

type MatchResponse struct {
	League  string          `json:"league"`
	Text    string          `json:"text"`
	Matches []catalog.Match `json:"matches"`
}

type RefreshResponse struct {
	Leagues int `json:"leagues"`
}

// ErrorResponse; Raw só vem preenchido quando o modelo não devolveu JSON
type ErrorResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw,omitempty"`
}
