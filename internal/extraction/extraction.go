package extraction

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-tracker/internal/odds"
	"github.com/radieske/wager-tracker/internal/wager"
)

// LivePrefix é prefixado na descrição de apostas ao vivo
const LivePrefix = "🚨 LIVE 🚨 "

const defaultDescription = "Bet (screenshot)"

// Raw é o payload sem tipo devolvido pelo modelo de visão
type Raw map[string]any

// TeamRef é o saco de atributos livres de um time (name, abbreviation, short_name, ...)
type TeamRef map[string]string

type LegDraft struct {
	Description string          `json:"description"`
	Status      wager.LegStatus `json:"status"`
}

// Draft é a aposta canônica extraída, ainda não persistida
type Draft struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Line        string          `json:"line"`
	Legs        []LegDraft      `json:"legs"`
	LeagueKey   string          `json:"league_key"`
	HomeTeam    TeamRef         `json:"home_team"`
	AwayTeam    TeamRef         `json:"away_team"`
	IsLiveBet   bool            `json:"is_live_bet"`
	IsFreePlay  bool            `json:"is_free_play"`
}

// IsParlay indica múltiplas seleções; nesse caso os times não são usados no matchup
func (d Draft) IsParlay() bool { return len(d.Legs) > 1 }

// Failure é o único erro fatal da extração: o texto não contém nenhum objeto JSON
type Failure struct {
	Raw string
	Err error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return "model did not return JSON: " + f.Err.Error()
	}
	return "model did not return JSON"
}

func (f *Failure) Unwrap() error { return f.Err }

var (
	objectRe   = regexp.MustCompile(`(?s)\{.*\}`)
	liveRe     = regexp.MustCompile(`(?i)\blive(\s+bet)?\b`)
	freePlayRe = regexp.MustCompile(`(?i)\b(free[\s-]+play|free[\s-]+bet|bonus[\s-]+bet|bonus[\s-]+wager)\b`)
)

// Decode interpreta a saída do modelo; se não for JSON puro tenta recuperar
// o objeto embutido no texto antes de desistir com *Failure
func Decode(text string) (Raw, error) {
	raw, err := decodeObject(text)
	if err == nil {
		return raw, nil
	}

	span := objectRe.FindString(text)
	if span == "" {
		return nil, &Failure{Raw: text, Err: err}
	}
	raw, err = decodeObject(span)
	if err != nil {
		return nil, &Failure{Raw: text, Err: err}
	}
	return raw, nil
}

func decodeObject(s string) (Raw, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty output")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("output is not a JSON object")
	}
	return Raw(obj), nil
}

// Parse = Decode + Validate
func Parse(text, hint string) (Draft, error) {
	raw, err := Decode(text)
	if err != nil {
		return Draft{}, err
	}
	return Validate(raw, hint, text), nil
}

// Validate transforma o payload em Draft. Campos ausentes ou malformados caem em
// defaults (string vazia, zero, false, open); nunca falha.
// hint é o texto livre enviado junto do print e rawText a saída bruta do modelo,
// ambos usados só na varredura de palavras-chave.
func Validate(raw Raw, hint, rawText string) Draft {
	d := Draft{
		Description: asString(raw["description"]),
		Line:        asString(raw["line"]),
		LeagueKey:   strings.ToLower(firstString(raw, "league_key", "league", "sport_league")),
		HomeTeam:    teamRef(raw["home_team"]),
		AwayTeam:    teamRef(raw["away_team"]),
		Amount:      decimal.Zero,
	}

	if amt, ok := asDecimal(raw["amount"]); ok && amt.IsPositive() {
		d.Amount = amt.Round(2)
	}

	// Risk/Win tem prioridade sobre qualquer odd impressa no bilhete
	risk, okRisk := asDecimal(raw["risk"])
	win, okWin := asDecimal(raw["win"])
	if !okWin {
		win, okWin = asDecimal(raw["to_win"])
	}
	if okRisk && okWin {
		if line, err := odds.LineFromRiskWin(risk, win); err == nil {
			d.Line = line
			if d.Amount.IsZero() {
				d.Amount = risk.Round(2)
			}
		}
	}

	legs := validateLegs(raw["legs"])

	searchable := []string{d.Description, d.Line}
	for _, l := range legs {
		searchable = append(searchable, l.Description)
	}
	searchable = append(searchable, hint, rawText)
	text := strings.Join(searchable, " ")

	d.IsLiveBet = asBool(raw["is_live_bet"]) || liveRe.MatchString(text)
	d.IsFreePlay = asBool(raw["is_free_play"]) || freePlayRe.MatchString(text)

	// aposta simples não guarda pernas; pernas só existem em parlays
	if len(legs) == 1 {
		legs = nil
	}
	d.Legs = legs
	return d
}

func validateLegs(v any) []LegDraft {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []LegDraft
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		desc := asString(obj["description"])
		if desc == "" {
			continue
		}
		out = append(out, LegDraft{
			Description: desc,
			Status:      wager.ParseLegStatus(asString(obj["status"])),
		})
	}
	return out
}

func teamRef(v any) TeamRef {
	ref := TeamRef{}
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			ref["name"] = s
		}
	case map[string]any:
		for k, val := range x {
			switch val.(type) {
			case string, json.Number, float64:
				if s := asString(val); s != "" && s != "0" {
					ref[k] = s
				}
			}
		}
	}
	return ref
}

// DisplayDescription é a descrição que vai para o banco:
// default para descrição vazia e prefixo LIVE (idempotente) para apostas ao vivo
func DisplayDescription(d Draft) string {
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = defaultDescription
	}
	if d.IsLiveBet && !strings.HasPrefix(desc, strings.TrimSpace(LivePrefix)) {
		desc = LivePrefix + desc
	}
	return desc
}
