package catalog

import (
	"context"
	"database/sql"
)

type PostgresStore struct {
	DB *sql.DB
}

func (r *PostgresStore) ListLeagues(ctx context.Context) ([]League, error) {
	const q = `
		SELECT id, key, COALESCE(name, ''), COALESCE(display_name, ''), COALESCE(sport, '')
		FROM leagues
		ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []League
	for rows.Next() {
		var l League
		if err := rows.Scan(&l.ID, &l.Key, &l.Name, &l.DisplayName, &l.Sport); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListTeams ordena por id: a ordem define quem vence colisões de alias
func (r *PostgresStore) ListTeams(ctx context.Context, leagueID int64) ([]Team, error) {
	const q = `
		SELECT id, league_id, COALESCE(external_id, ''), COALESCE(location, ''), COALESCE(name, ''),
		       COALESCE(nickname, ''), COALESCE(abbreviation, ''), COALESCE(logo_url, '')
		FROM teams
		WHERE league_id = $1
		ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.ExternalID, &t.Location, &t.Name,
			&t.Nickname, &t.Abbreviation, &t.LogoURL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
