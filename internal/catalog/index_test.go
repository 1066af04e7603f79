package catalog

import "testing"

func nflTeams() []Team {
	return []Team{
		{ID: 1, LeagueID: 10, ExternalID: "12", Location: "Kansas City", Name: "Kansas City Chiefs", Nickname: "Chiefs", Abbreviation: "KC"},
		{ID: 2, LeagueID: 10, ExternalID: "13", Location: "Las Vegas", Name: "Las Vegas Raiders", Nickname: "Raiders", Abbreviation: "LV"},
		{ID: 3, LeagueID: 10, ExternalID: "19", Location: "New York", Name: "New York Giants", Nickname: "Giants", Abbreviation: "NYG"},
		{ID: 4, LeagueID: 10, ExternalID: "20", Location: "New York", Name: "New York Jets", Nickname: "Jets", Abbreviation: "NYJ"},
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Kansas City Chiefs!": "kansascitychiefs",
		"  49ers ":            "49ers",
		"St. Louis Blues":     "stlouisblues",
		"":                    "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTeamDisplayName(t *testing.T) {
	tests := []struct {
		team Team
		want string
	}{
		{Team{Location: "Kansas City", Nickname: "Chiefs"}, "Kansas City Chiefs"},
		{Team{Location: "Kansas City", Name: "Kansas City Chiefs"}, "Kansas City Chiefs"},
		{Team{Name: "Chiefs"}, "Chiefs"},
		{Team{Location: "Utah", Name: "Utah"}, "Utah"},
		{Team{Location: "Boston"}, "Boston"},
	}
	for _, tt := range tests {
		if got := tt.team.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.team, got, tt.want)
		}
	}
}

func TestBuildIndex(t *testing.T) {
	ix := BuildIndex(nflTeams())

	if a, ok := ix.Lookup("newyork"); !ok || a.TeamID != 3 {
		t.Errorf("newyork should belong to the first team registered, got %+v %v", a, ok)
	}
	if _, ok := ix.Lookup("kc"); ok {
		t.Error("two-char aliases must not be indexed")
	}
	if _, ok := ix.Lookup("12"); ok {
		t.Error("two-char external ids must not be indexed")
	}
	a, ok := ix.Lookup("nyj")
	if !ok || !a.Strict || a.Source != FieldAbbreviation {
		t.Errorf("nyj = %+v %v, want strict abbreviation", a, ok)
	}
	if a, _ := ix.Lookup("chiefs"); a.Strict {
		t.Error("nickname alias should not be strict")
	}
}

func TestIndexResolve(t *testing.T) {
	ix := BuildIndex(nflTeams())

	tests := []struct {
		name   string
		ref    map[string]string
		want   int64
		wantOK bool
	}{
		{"abbreviation", map[string]string{"abbreviation": "NYJ"}, 4, true},
		{"full name", map[string]string{"name": "Kansas City Chiefs"}, 1, true},
		{"priority over later fields", map[string]string{"abbreviation": "NYG", "nickname": "Jets"}, 3, true},
		{"short external id skipped", map[string]string{"external_id": "13", "nickname": "Raiders"}, 2, true},
		{"nickname before location", map[string]string{"location": "New York", "nickname": "Jets"}, 4, true},
		{"location alone", map[string]string{"location": "Las Vegas"}, 2, true},
		{"fallback alias inside candidate", map[string]string{"name": "Chiefs Kingdom"}, 1, true},
		{"fallback candidate inside alias", map[string]string{"name": "Vegas Raid"}, 2, true},
		{"unknown team", map[string]string{"name": "Packers"}, 0, false},
		{"too short for fallback", map[string]string{"abbreviation": "KC"}, 0, false},
		{"empty bag", map[string]string{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ix.Resolve(tt.ref)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%v) = %d/%v, want %d/%v", tt.ref, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMatchTextSameTeamOnce(t *testing.T) {
	ix := BuildIndex(nflTeams())

	for _, leg := range []string{"Chiefs -3", "Chiefs ML"} {
		got := ix.MatchText(leg, DefaultWeights)
		if len(got) != 1 || got[0].TeamID != 1 {
			t.Errorf("MatchText(%q) = %+v, want only the Chiefs", leg, got)
		}
	}

	got := ix.MatchText("Kansas City Chiefs ML", DefaultWeights)
	if len(got) != 1 || got[0].TeamID != 1 {
		t.Fatalf("full name matched %+v", got)
	}
	if got[0].Alias != "Kansas City Chiefs" {
		t.Errorf("best alias = %q, want the longest one", got[0].Alias)
	}
}

func TestMatchTextWordBoundaries(t *testing.T) {
	ix := BuildIndex(nflTeams())

	got := ix.MatchText("NYJ +3.5", DefaultWeights)
	if len(got) != 1 || got[0].TeamID != 4 {
		t.Errorf("strict abbreviation as a word: %+v", got)
	}

	if got := ix.MatchText("Jetsetters over 40.5", DefaultWeights); len(got) != 0 {
		t.Errorf("short alias inside a longer word should not match: %+v", got)
	}
	if got := ix.MatchText("Bonyjumper", DefaultWeights); len(got) != 0 {
		t.Errorf("strict alias inside a word should not match: %+v", got)
	}
}

func TestMatchTextRanking(t *testing.T) {
	ix := BuildIndex(nflTeams())

	got := ix.MatchText("Giants vs Jets", DefaultWeights)
	if len(got) != 2 || got[0].TeamID != 3 || got[1].TeamID != 4 {
		t.Fatalf("Giants vs Jets = %+v", got)
	}
	if got[0].Score != 15 || got[1].Score != 13 {
		t.Errorf("scores = %d, %d, want 15, 13", got[0].Score, got[1].Score)
	}

	// Raiders 16; Chiefs e Giants empatam em 15 e o menor id vence
	got = ix.MatchText("Chiefs, Raiders, Giants parlay", DefaultWeights)
	if len(got) != 2 || got[0].TeamID != 2 || got[1].TeamID != 1 {
		t.Errorf("top two = %+v", got)
	}

	got = ix.MatchText("Giants vs Jets", Weights{})
	if got[0].Score != 6 || got[1].Score != 4 {
		t.Errorf("zero weights should score by alias length, got %+v", got)
	}
}
