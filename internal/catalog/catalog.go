package catalog

import (
	"strings"
	"unicode"
)

type League struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Sport       string `json:"sport"`
}

type Team struct {
	ID           int64  `json:"id"`
	LeagueID     int64  `json:"league_id"`
	ExternalID   string `json:"external_id"`
	Location     string `json:"location"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname"`
	Abbreviation string `json:"abbreviation"`
	LogoURL      string `json:"logo_url,omitempty"`
}

// DisplayName junta location + (nickname ou name) sem repetir partes
// ("Kansas City" + "Kansas City Chiefs" => "Kansas City Chiefs")
func (t Team) DisplayName() string {
	loc := strings.TrimSpace(t.Location)
	nick := strings.TrimSpace(t.Nickname)
	if nick == "" {
		nick = strings.TrimSpace(t.Name)
	}
	switch {
	case loc == "":
		return nick
	case nick == "", strings.EqualFold(loc, nick):
		return loc
	case strings.HasPrefix(strings.ToLower(nick), strings.ToLower(loc)):
		return nick
	}
	return loc + " " + nick
}

// Normalize: minúsculas, só letras e dígitos
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
