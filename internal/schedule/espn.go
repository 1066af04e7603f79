package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const BaseURL = "https://site.api.espn.com/apis/site/v2/sports"

// SupportedLeagues mapeia league_key -> caminho do esporte na API da ESPN
var SupportedLeagues = map[string]string{
	"nfl": "football/nfl",
	"nba": "basketball/nba",
	"nhl": "hockey/nhl",
	"mlb": "baseball/mlb",
}

var ErrUnsupportedLeague = errors.New("league not supported by schedule provider")

type TeamSide struct {
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Logo         string `json:"logo,omitempty"`
	Record       string `json:"record,omitempty"`
	Score        string `json:"score,omitempty"`
	IsHome       bool   `json:"is_home"`
}

// GameCard é um jogo do scoreboard
type GameCard struct {
	EventID      string     `json:"event_id"`
	Name         string     `json:"name"`
	ShortName    string     `json:"short_name"`
	Status       string     `json:"status"`
	StatusDetail string     `json:"status_detail"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	Venue        string     `json:"venue,omitempty"`
	Networks     []string   `json:"networks"`
	Teams        []TeamSide `json:"teams"`
}

// Involves indica se os dois times (por external id da ESPN) jogam esta partida
func (g GameCard) Involves(homeID, awayID string) bool {
	if homeID == "" || awayID == "" {
		return false
	}
	var home, away bool
	for _, t := range g.Teams {
		switch t.ExternalID {
		case homeID:
			home = true
		case awayID:
			away = true
		}
	}
	return home && away
}

// FindGame devolve o primeiro jogo entre os dois times
func FindGame(games []GameCard, homeID, awayID string) (GameCard, bool) {
	for _, g := range games {
		if g.Involves(homeID, awayID) {
			return g, true
		}
	}
	return GameCard{}, false
}

// Client handles ESPN scoreboard requests
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func New() *Client {
	return &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: "Mozilla/5.0 (compatible; WagerTracker/1.0)",
	}
}

// WithBaseURL troca o host da API (testes, proxy)
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// ScheduleForDay busca os jogos da liga no dia informado
func (c *Client) ScheduleForDay(ctx context.Context, leagueKey string, day time.Time) ([]GameCard, error) {
	sportPath, ok := SupportedLeagues[strings.ToLower(strings.TrimSpace(leagueKey))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLeague, leagueKey)
	}
	url := fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.baseURL, sportPath, day.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ESPN API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var sb scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&sb); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	games := make([]GameCard, 0, len(sb.Events))
	for _, ev := range sb.Events {
		if g, ok := ev.toCard(); ok {
			games = append(games, g)
		}
	}
	return games, nil
}

// formato bruto do scoreboard; só os campos usados

type scoreboard struct {
	Events []espnEvent `json:"events"`
}

type espnStatus struct {
	Type struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Detail      string `json:"detail"`
		ShortDetail string `json:"shortDetail"`
	} `json:"type"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ShortName    string            `json:"shortName"`
	Date         string            `json:"date"`
	Status       *espnStatus       `json:"status"`
	Competitions []espnCompetition `json:"competitions"`
}

type espnCompetition struct {
	Date   string      `json:"date"`
	Status *espnStatus `json:"status"`
	Venue  struct {
		FullName string `json:"fullName"`
	} `json:"venue"`
	Broadcasts []struct {
		Name      string `json:"name"`
		ShortName string `json:"shortName"`
	} `json:"broadcasts"`
	Competitors []espnCompetitor `json:"competitors"`
}

type espnCompetitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Records  []struct {
		Summary string `json:"summary"`
	} `json:"records"`
	Team struct {
		ID           string `json:"id"`
		DisplayName  string `json:"displayName"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
		Logo         string `json:"logo"`
		Logos        []struct {
			Href string `json:"href"`
		} `json:"logos"`
	} `json:"team"`
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	// a ESPN costuma omitir os segundos ("2025-10-05T17:00Z")
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (ev espnEvent) toCard() (GameCard, bool) {
	if len(ev.Competitions) == 0 {
		return GameCard{}, false
	}
	comp := ev.Competitions[0]
	status := comp.Status
	if status == nil {
		status = ev.Status
	}

	g := GameCard{
		EventID:   ev.ID,
		Name:      ev.Name,
		ShortName: ev.ShortName,
		Venue:     comp.Venue.FullName,
		Networks:  []string{},
	}
	if status != nil {
		g.Status = status.Type.Description
		if g.Status == "" {
			g.Status = status.Type.Name
		}
		g.StatusDetail = status.Type.ShortDetail
		if g.StatusDetail == "" {
			g.StatusDetail = status.Type.Detail
		}
	}
	g.StartTime = parseTime(comp.Date)
	if g.StartTime == nil {
		g.StartTime = parseTime(ev.Date)
	}

	seen := map[string]bool{}
	for _, b := range comp.Broadcasts {
		name := b.Name
		if name == "" {
			name = b.ShortName
		}
		if name != "" && !seen[name] {
			seen[name] = true
			g.Networks = append(g.Networks, name)
		}
	}

	for _, c := range comp.Competitors {
		side := TeamSide{
			ExternalID:   c.Team.ID,
			Name:         c.Team.DisplayName,
			Abbreviation: c.Team.Abbreviation,
			Score:        c.Score,
			IsHome:       c.HomeAway == "home",
			Logo:         c.Team.Logo,
		}
		if side.Name == "" {
			side.Name = c.Team.Name
		}
		for _, l := range c.Team.Logos {
			if l.Href != "" {
				side.Logo = l.Href
				break
			}
		}
		for _, r := range c.Records {
			if r.Summary != "" {
				side.Record = r.Summary
				break
			}
		}
		g.Teams = append(g.Teams, side)
	}
	return g, true
}
