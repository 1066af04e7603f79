package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// UserID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// StatsUpdate é o aviso repassado do Redis aos clientes inscritos no usuário
type StatsUpdate struct {
	UserID  string          `json:"userId"`
	Event   string          `json:"event"`
	WagerID string          `json:"wagerId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
