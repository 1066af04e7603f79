package catalog

import (
	"regexp"
	"sort"
	"strings"
)

// Field identifica de qual atributo do time o alias veio
type Field string

const (
	FieldExternalID       Field = "external_id"
	FieldAbbreviation     Field = "abbreviation"
	FieldShortName        Field = "short_name"
	FieldNickname         Field = "nickname"
	FieldName             Field = "name"
	FieldDisplayName      Field = "display_name"
	FieldLocation         Field = "location"
	FieldLocationNickname Field = "location_nickname"
	FieldLocationName     Field = "location_name"
)

// aliases normalizados menores que isso geram ruído demais ("ny", "la")
const minAliasLen = 3

// Alias é uma entrada do índice
type Alias struct {
	TeamID int64
	Alias  string // normalizado
	Raw    string
	Source Field
	Strict bool // external_id e abbreviation só casam como palavra inteira

	word *regexp.Regexp
}

// Index é o índice de aliases de uma liga. Imutável depois de construído.
type Index struct {
	entries []Alias
	byAlias map[string]int
	teams   map[int64]Team
}

type candidate struct {
	field Field
	value string
}

func teamCandidates(t Team) []candidate {
	return []candidate{
		{FieldExternalID, t.ExternalID},
		{FieldAbbreviation, t.Abbreviation},
		{FieldNickname, t.Nickname},
		{FieldName, t.Name},
		{FieldDisplayName, t.DisplayName()},
		{FieldLocation, t.Location},
		{FieldLocationNickname, joinNonEmpty(t.Location, t.Nickname)},
		{FieldLocationName, joinNonEmpty(t.Location, t.Name)},
	}
}

// refCandidates segue a prioridade de campos da resolução exata
func refCandidates(ref map[string]string) []candidate {
	loc := ref["location"]
	return []candidate{
		{FieldExternalID, ref["external_id"]},
		{FieldAbbreviation, ref["abbreviation"]},
		{FieldShortName, ref["short_name"]},
		{FieldNickname, ref["nickname"]},
		{FieldName, ref["name"]},
		{FieldDisplayName, ref["display_name"]},
		{FieldLocation, loc},
		{FieldLocationNickname, joinNonEmpty(loc, ref["nickname"])},
		{FieldLocationName, joinNonEmpty(loc, ref["name"])},
	}
}

func joinNonEmpty(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return ""
	}
	return a + " " + b
}

func isStrict(f Field) bool { return f == FieldExternalID || f == FieldAbbreviation }

// BuildIndex registra cada alias normalizado uma única vez; em colisão entre
// times o primeiro registrado vence.
func BuildIndex(teams []Team) *Index {
	ix := &Index{
		byAlias: make(map[string]int),
		teams:   make(map[int64]Team, len(teams)),
	}
	for _, t := range teams {
		ix.teams[t.ID] = t
		for _, c := range teamCandidates(t) {
			raw := strings.TrimSpace(c.value)
			norm := Normalize(raw)
			if len(norm) < minAliasLen {
				continue
			}
			if _, taken := ix.byAlias[norm]; taken {
				continue
			}
			ix.byAlias[norm] = len(ix.entries)
			ix.entries = append(ix.entries, Alias{
				TeamID: t.ID,
				Alias:  norm,
				Raw:    raw,
				Source: c.field,
				Strict: isStrict(c.field),
				word:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(raw) + `\b`),
			})
		}
	}
	return ix
}

// Len é o número de aliases indexados
func (ix *Index) Len() int { return len(ix.entries) }

func (ix *Index) Team(id int64) (Team, bool) {
	t, ok := ix.teams[id]
	return t, ok
}

// Lookup é o acerto exato de um alias já normalizado
func (ix *Index) Lookup(alias string) (Alias, bool) {
	i, ok := ix.byAlias[alias]
	if !ok {
		return Alias{}, false
	}
	return ix.entries[i], true
}

// Resolve mapeia um saco de atributos livres para um time do índice.
// Primeiro tenta acerto exato em ordem de prioridade; depois, contenção de
// substring em qualquer direção na ordem de construção do índice.
func (ix *Index) Resolve(ref map[string]string) (int64, bool) {
	if ix == nil || len(ref) == 0 {
		return 0, false
	}
	var norms []string
	for _, c := range refCandidates(ref) {
		n := Normalize(c.value)
		if n == "" {
			continue
		}
		if a, ok := ix.Lookup(n); ok {
			return a.TeamID, true
		}
		norms = append(norms, n)
	}

	for _, n := range norms {
		if len(n) < minAliasLen {
			continue
		}
		for _, e := range ix.entries {
			if strings.Contains(n, e.Alias) || strings.Contains(e.Alias, n) {
				return e.TeamID, true
			}
		}
	}
	return 0, false
}

// Weights são os bônus de desempate do casamento por texto livre
type Weights struct {
	Literal     int // alias aparece literalmente no texto
	Location    int
	Nickname    int
	DisplayName int
}

var DefaultWeights = Weights{Literal: 5, Location: 3, Nickname: 4, DisplayName: 6}

type Match struct {
	TeamID int64  `json:"team_id"`
	Team   Team   `json:"team"`
	Alias  string `json:"alias"`
	Score  int    `json:"score"`
}

const maxTextMatches = 2

// MatchText identifica quais times uma descrição livre (perna de parlay) cita.
// Devolve no máximo dois times, um por id, por score decrescente.
func (ix *Index) MatchText(text string, w Weights) []Match {
	if ix == nil {
		return nil
	}
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	lower := strings.ToLower(text)

	best := make(map[int64]Match)
	for _, e := range ix.entries {
		if !strings.Contains(norm, e.Alias) {
			continue
		}
		if !(!e.Strict && len(e.Alias) > 5) && !e.word.MatchString(text) {
			continue
		}
		t := ix.teams[e.TeamID]
		score := len(e.Alias)
		if strings.Contains(lower, strings.ToLower(e.Raw)) {
			score += w.Literal
		}
		if containsFold(lower, t.Location) {
			score += w.Location
		}
		if containsFold(lower, t.Nickname) {
			score += w.Nickname
		}
		if containsFold(lower, t.DisplayName()) {
			score += w.DisplayName
		}
		if cur, ok := best[e.TeamID]; !ok || score > cur.Score {
			best[e.TeamID] = Match{TeamID: e.TeamID, Team: t, Alias: e.Raw, Score: score}
		}
	}

	out := make([]Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TeamID < out[j].TeamID
	})
	if len(out) > maxTextMatches {
		out = out[:maxTextMatches]
	}
	return out
}

func containsFold(lowerText, s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Contains(lowerText, strings.ToLower(s))
}
