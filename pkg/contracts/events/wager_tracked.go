package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento publicado no tópico "wager_tracked" quando uma aposta é registrada
type WagerTracked struct {
	WagerID     string          `json:"wager_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Line        string          `json:"line"`
	IsLiveBet   bool            `json:"is_live_bet"`
	IsFreePlay  bool            `json:"is_free_play"`
	LegCount    int             `json:"leg_count"`
	Matched     bool            `json:"matched"` // matchup resolvido no catálogo
	Ts          time.Time       `json:"ts"`
}
