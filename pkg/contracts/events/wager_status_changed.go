package events

import "time"

// Evento publicado no tópico "wager_status_changed".
// LegID vazio => mudança no status da aposta; preenchido => mudança de uma perna.
type WagerStatusChanged struct {
	WagerID    string     `json:"wager_id"`
	UserID     string     `json:"user_id"`
	LegID      string     `json:"leg_id,omitempty"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	ResultedAt *time.Time `json:"resulted_at,omitempty"`
	Ts         time.Time  `json:"ts"`
}
