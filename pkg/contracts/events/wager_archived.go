package events

import "time"

// Evento emitido pelo archive-worker para cada aposta arquivada na varredura.
// Também usado quando a notificação é confirmada (Reacted=true).
type WagerArchived struct {
	WagerID string    `json:"wager_id"`
	UserID  string    `json:"user_id"`
	Status  string    `json:"status"`
	Reacted bool      `json:"reacted"`
	Ts      time.Time `json:"ts"`
}

// UserRef é o campo comum a todos os eventos de aposta; consumidores que só
// precisam saber de qual usuário é o evento decodificam apenas isso.
type UserRef struct {
	WagerID string `json:"wager_id"`
	UserID  string `json:"user_id"`
}
