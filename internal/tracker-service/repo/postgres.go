package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/wager-tracker/internal/shared/db"
	"github.com/radieske/wager-tracker/internal/wager"
)

var (
	ErrNotFound    = errors.New("wager not found")
	ErrLegNotFound = errors.New("leg not found")
	ErrNotArchived = errors.New("wager is not archived")
)

// Postgres implementa a persistência de apostas (wagers + legs + matchups)
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, now: time.Now} }

const wagerColumns = `id, user_id, description, amount, line, image_url, status,
	is_free_play, is_live_bet, archived, archive_reacted, created_at, resulted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWager(s rowScanner) (wager.Wager, error) {
	var (
		w        wager.Wager
		status   string
		resulted sql.NullTime
	)
	err := s.Scan(&w.ID, &w.UserID, &w.Description, &w.Amount, &w.Line, &w.ImageURL, &status,
		&w.IsFreePlay, &w.IsLiveBet, &w.Archived, &w.ArchiveReacted, &w.CreatedAt, &resulted)
	if err != nil {
		return wager.Wager{}, err
	}
	// status desconhecido fica como veio; a agregação descarta o registro
	w.Status = wager.Status(status)
	if resulted.Valid {
		t := resulted.Time
		w.ResultedAt = &t
	}
	return w, nil
}

// CreateWager grava aposta, pernas e matchup numa transação. Preenche ids e created_at.
func (p *Postgres) CreateWager(ctx context.Context, w *wager.Wager) error {
	w.ID = uuid.NewString()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = p.now().UTC()
	}
	if w.Status == "" {
		w.Status = wager.StatusOpen
	}
	for i := range w.Legs {
		w.Legs[i].ID = uuid.NewString()
		if w.Legs[i].Status == "" {
			w.Legs[i].Status = wager.LegOpen
		}
	}

	return db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wagers (id,user_id,description,amount,line,image_url,status,
				is_free_play,is_live_bet,archived,archive_reacted,created_at,resulted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE,FALSE,$10,$11)`,
			w.ID, w.UserID, w.Description, w.Amount, w.Line, w.ImageURL, string(w.Status),
			w.IsFreePlay, w.IsLiveBet, w.CreatedAt, w.ResultedAt,
		)
		if err != nil {
			return fmt.Errorf("insert wager: %w", err)
		}
		for i, l := range w.Legs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO wager_legs (id,wager_id,position,description,status)
				VALUES ($1,$2,$3,$4,$5)`,
				l.ID, w.ID, i, l.Description, string(l.Status),
			); err != nil {
				return fmt.Errorf("insert leg %d: %w", i, err)
			}
		}
		if m := w.Matchup; m != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO wager_matchups (wager_id,league_id,home_team_id,away_team_id,scheduled_at)
				VALUES ($1,$2,$3,$4,$5)`,
				w.ID, m.LeagueID, m.HomeTeamID, m.AwayTeamID, m.ScheduledAt,
			); err != nil {
				return fmt.Errorf("insert matchup: %w", err)
			}
		}
		return nil
	})
}

// GetWager retorna a aposta completa (pernas + matchup)
func (p *Postgres) GetWager(ctx context.Context, id string) (wager.Wager, error) {
	w, err := scanWager(p.db.QueryRowContext(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return wager.Wager{}, ErrNotFound
	}
	if err != nil {
		return wager.Wager{}, err
	}
	ws := []wager.Wager{w}
	if err := p.attach(ctx, ws); err != nil {
		return wager.Wager{}, err
	}
	return ws[0], nil
}

// ListWagersForUser retorna todas as apostas do usuário, mais recentes primeiro
func (p *Postgres) ListWagersForUser(ctx context.Context, userID string) ([]wager.Wager, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []wager.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := p.attach(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attach carrega pernas e matchups de um lote de apostas com duas consultas
func (p *Postgres) attach(ctx context.Context, ws []wager.Wager) error {
	if len(ws) == 0 {
		return nil
	}
	ids := make([]string, len(ws))
	pos := make(map[string]int, len(ws))
	for i, w := range ws {
		ids[i] = w.ID
		pos[w.ID] = i
		ws[i].Legs = []wager.Leg{}
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, wager_id, description, status
		FROM wager_legs
		WHERE wager_id = ANY($1)
		ORDER BY wager_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load legs: %w", err)
	}
	for rows.Next() {
		var (
			l       wager.Leg
			wagerID string
			status  string
		)
		if err := rows.Scan(&l.ID, &wagerID, &l.Description, &status); err != nil {
			rows.Close()
			return err
		}
		l.Status = wager.ParseLegStatus(status)
		i := pos[wagerID]
		ws[i].Legs = append(ws[i].Legs, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	mrows, err := p.db.QueryContext(ctx, `
		SELECT wager_id, league_id, home_team_id, away_team_id, scheduled_at
		FROM wager_matchups
		WHERE wager_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load matchups: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var (
			m         wager.Matchup
			wagerID   string
			scheduled sql.NullTime
		)
		if err := mrows.Scan(&wagerID, &m.LeagueID, &m.HomeTeamID, &m.AwayTeamID, &scheduled); err != nil {
			return err
		}
		if scheduled.Valid {
			t := scheduled.Time
			m.ScheduledAt = &t
		}
		ws[pos[wagerID]].Matchup = &m
	}
	return mrows.Err()
}

// saveLifecycle grava status + resulted_at + archived + archive_reacted num único UPDATE
func saveLifecycle(ctx context.Context, tx *sql.Tx, w wager.Wager) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wagers
		SET status=$1, resulted_at=$2, archived=$3, archive_reacted=$4
		WHERE id=$5`,
		string(w.Status), w.ResultedAt, w.Archived, w.ArchiveReacted, w.ID,
	)
	return err
}

// UpdateStatus aplica o toggle de status com lock da linha; devolve antes e depois
func (p *Postgres) UpdateStatus(ctx context.Context, id string, requested wager.Status) (before, after wager.Wager, err error) {
	err = db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		w, err := scanWager(tx.QueryRowContext(ctx,
			`SELECT `+wagerColumns+` FROM wagers WHERE id=$1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		before = w
		after = wager.Transition(w, requested, p.now().UTC())
		return saveLifecycle(ctx, tx, after)
	})
	return before, after, err
}

// UpdateLegStatus aplica o toggle numa perna; devolve a perna atualizada e o status anterior
func (p *Postgres) UpdateLegStatus(ctx context.Context, wagerID, legID, requested string) (leg wager.Leg, from wager.LegStatus, err error) {
	err = db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT id, description, status
			FROM wager_legs
			WHERE id=$1 AND wager_id=$2
			FOR UPDATE`, legID, wagerID,
		).Scan(&leg.ID, &leg.Description, &status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLegNotFound
		}
		if err != nil {
			return err
		}
		from = wager.ParseLegStatus(status)
		leg.Status = wager.ApplyLegStatus(from, requested)
		_, err = tx.ExecContext(ctx, `UPDATE wager_legs SET status=$1 WHERE id=$2`, string(leg.Status), leg.ID)
		return err
	})
	return leg, from, err
}

// ArchiveDecided arquiva apostas decididas ainda ativas. Um único UPDATE por lote
// liga archived e zera archive_reacted juntos.
func (p *Postgres) ArchiveDecided(ctx context.Context, limit int) ([]wager.Wager, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := p.db.QueryContext(ctx, `
		UPDATE wagers
		SET archived=TRUE, archive_reacted=FALSE
		WHERE id IN (
			SELECT id FROM wagers
			WHERE status IN ('won','lost') AND archived=FALSE
			ORDER BY resulted_at NULLS FIRST, created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+wagerColumns, limit)
	if err != nil {
		return nil, fmt.Errorf("archive sweep: %w", err)
	}
	defer rows.Close()
	var out []wager.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MarkArchiveReacted registra que a notificação de arquivamento foi entregue
func (p *Postgres) MarkArchiveReacted(ctx context.Context, id string) (wager.Wager, error) {
	w, err := scanWager(p.db.QueryRowContext(ctx, `
		UPDATE wagers SET archive_reacted=TRUE
		WHERE id=$1 AND archived=TRUE
		RETURNING `+wagerColumns, id))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return wager.Wager{}, err
	}
	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wagers WHERE id=$1)`, id).Scan(&exists); err != nil {
		return wager.Wager{}, err
	}
	if !exists {
		return wager.Wager{}, ErrNotFound
	}
	return wager.Wager{}, ErrNotArchived
}

// Delete remove a aposta; pernas e matchup saem em cascata
func (p *Postgres) Delete(ctx context.Context, id string) (userID string, err error) {
	err = p.db.QueryRowContext(ctx, `DELETE FROM wagers WHERE id=$1 RETURNING user_id`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}
