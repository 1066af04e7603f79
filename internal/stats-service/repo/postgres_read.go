package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/radieske/wager-tracker/internal/wager"
)

type ReadRepo struct {
	DB *sql.DB
}

// statsColumns segue a ordem dos destinos em scanStatsRow
var statsColumns = []string{
	"w.id", "w.description", "w.amount", "w.line", "w.status",
	"w.is_free_play", "w.is_live_bet", "w.archived",
	"w.created_at", "w.resulted_at", "m.scheduled_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// WagersForStats carrega só o que a agregação usa: status, valores, flags, datas e
// o horário do jogo (quando há matchup). Pernas não entram.
func (r *ReadRepo) WagersForStats(ctx context.Context, userID string) ([]wager.Wager, error) {
	q := `
		SELECT ` + strings.Join(statsColumns, ", ") + `
		FROM wagers w
		LEFT JOIN wager_matchups m ON m.wager_id = w.id
		WHERE w.user_id = $1
		ORDER BY w.created_at;
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []wager.Wager
	for rows.Next() {
		w, err := scanStatsRow(rows)
		if err != nil {
			return nil, err
		}
		w.UserID = userID
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanStatsRow(row rowScanner) (wager.Wager, error) {
	var (
		w         wager.Wager
		status    string
		resulted  sql.NullTime
		scheduled sql.NullTime
	)
	if err := row.Scan(&w.ID, &w.Description, &w.Amount, &w.Line, &status,
		&w.IsFreePlay, &w.IsLiveBet, &w.Archived,
		&w.CreatedAt, &resulted, &scheduled); err != nil {
		return wager.Wager{}, err
	}
	w.Status = wager.Status(status)
	if resulted.Valid {
		t := resulted.Time
		w.ResultedAt = &t
	}
	// só o horário interessa para a agregação; ids do matchup ficam zerados
	if scheduled.Valid {
		t := scheduled.Time
		w.Matchup = &wager.Matchup{ScheduledAt: &t}
	}
	return w, nil
}
