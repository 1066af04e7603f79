package wager

import "time"

// Transition aplica um pedido de status e devolve a aposta com todos os campos
// de ciclo de vida atualizados juntos (status, resulted_at, archived, archive_reacted).
func Transition(w Wager, requested Status, now time.Time) Wager {
	next := ApplyStatus(w.Status, requested)

	if next.Decided() {
		// won <-> lost mantém o resulted_at original
		if w.ResultedAt == nil || !w.Status.Decided() {
			t := now
			w.ResultedAt = &t
		}
	} else {
		w.ResultedAt = nil
		if w.Archived {
			w.Archived = false
			w.ArchiveReacted = false
		}
	}

	w.Status = next
	return w
}
