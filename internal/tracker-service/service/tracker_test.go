package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-tracker/internal/catalog"
	"github.com/radieske/wager-tracker/internal/extraction"
	"github.com/radieske/wager-tracker/internal/schedule"
	"github.com/radieske/wager-tracker/internal/wager"
	"github.com/radieske/wager-tracker/pkg/contracts/events"
)

// ---- fakes ----

type memStore struct {
	wagers  map[string]wager.Wager
	created int
	err     error
}

func newMemStore() *memStore { return &memStore{wagers: map[string]wager.Wager{}} }

func (m *memStore) CreateWager(ctx context.Context, w *wager.Wager) error {
	if m.err != nil {
		return m.err
	}
	m.created++
	w.ID = "w-" + string(rune('0'+m.created))
	w.CreatedAt = time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	for i := range w.Legs {
		w.Legs[i].ID = w.ID + "-leg"
	}
	m.wagers[w.ID] = *w
	return nil
}

func (m *memStore) GetWager(ctx context.Context, id string) (wager.Wager, error) {
	w, ok := m.wagers[id]
	if !ok {
		return wager.Wager{}, errNotFound
	}
	return w, nil
}

func (m *memStore) ListWagersForUser(ctx context.Context, userID string) ([]wager.Wager, error) {
	var out []wager.Wager
	for _, w := range m.wagers {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id string, requested wager.Status) (wager.Wager, wager.Wager, error) {
	w, ok := m.wagers[id]
	if !ok {
		return wager.Wager{}, wager.Wager{}, errNotFound
	}
	after := wager.Transition(w, requested, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC))
	m.wagers[id] = after
	return w, after, nil
}

func (m *memStore) UpdateLegStatus(ctx context.Context, wagerID, legID, requested string) (wager.Leg, wager.LegStatus, error) {
	w, ok := m.wagers[wagerID]
	if !ok {
		return wager.Leg{}, "", errNotFound
	}
	for i, l := range w.Legs {
		if l.ID == legID {
			from := l.Status
			w.Legs[i].Status = wager.ApplyLegStatus(from, requested)
			return w.Legs[i], from, nil
		}
	}
	return wager.Leg{}, "", errNotFound
}

func (m *memStore) MarkArchiveReacted(ctx context.Context, id string) (wager.Wager, error) {
	w, ok := m.wagers[id]
	if !ok {
		return wager.Wager{}, errNotFound
	}
	w.ArchiveReacted = true
	m.wagers[id] = w
	return w, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (string, error) {
	w, ok := m.wagers[id]
	if !ok {
		return "", errNotFound
	}
	delete(m.wagers, id)
	return w.UserID, nil
}

var errNotFound = errors.New("not found")

type stubVision struct {
	out   string
	err   error
	calls int
}

func (s *stubVision) Extract(ctx context.Context, imageURL, hint string) (string, error) {
	s.calls++
	return s.out, s.err
}

type stubResolver struct {
	m     *wager.Matchup
	notes []string
}

func (s stubResolver) Resolve(ctx context.Context, d extraction.Draft) (*wager.Matchup, []string) {
	if s.m == nil {
		return nil, s.notes
	}
	cp := *s.m
	return &cp, s.notes
}

type stubCatalog struct{ snap *catalog.Snapshot }

func (s stubCatalog) Snapshot(ctx context.Context) (*catalog.Snapshot, error) { return s.snap, nil }
func (s stubCatalog) Refresh(ctx context.Context, force bool) (*catalog.Snapshot, error) {
	return s.snap, nil
}

type stubSchedule struct {
	games []schedule.GameCard
	err   error
}

func (s stubSchedule) ScheduleForDay(ctx context.Context, leagueKey string, day time.Time) ([]schedule.GameCard, error) {
	return s.games, s.err
}

type recorder struct {
	tracked  []events.WagerTracked
	status   []events.WagerStatusChanged
	archived []events.WagerArchived
}

func (r *recorder) PublishTracked(ctx context.Context, e events.WagerTracked) error {
	r.tracked = append(r.tracked, e)
	return nil
}

func (r *recorder) PublishStatusChanged(ctx context.Context, e events.WagerStatusChanged) error {
	r.status = append(r.status, e)
	return nil
}

func (r *recorder) PublishArchived(ctx context.Context, e events.WagerArchived) error {
	r.archived = append(r.archived, e)
	return nil
}

type memGuard struct {
	seen     map[string]bool
	released int
}

func (g *memGuard) Claim(ctx context.Context, userID, imageURL string) (bool, error) {
	k := userID + "|" + imageURL
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	return true, nil
}

func (g *memGuard) Release(ctx context.Context, userID, imageURL string) error {
	g.released++
	delete(g.seen, userID+"|"+imageURL)
	return nil
}

const chiefsJSON = `Here you go:
{"description": "Chiefs ML", "amount": "$50", "line": "-110", "league_key": "nfl",
 "home_team": {"name": "Kansas City Chiefs"}, "away_team": {"name": "Las Vegas Raiders"}}`

func nflSnapshot() *catalog.Snapshot {
	return catalog.NewSnapshot(
		[]catalog.League{{ID: 1, Key: "nfl", Name: "NFL"}},
		map[int64][]catalog.Team{1: {
			{ID: 10, LeagueID: 1, ExternalID: "12", Location: "Kansas City", Nickname: "Chiefs", Abbreviation: "KC"},
			{ID: 11, LeagueID: 1, ExternalID: "13", Location: "Las Vegas", Nickname: "Raiders", Abbreviation: "LV"},
		}},
		time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC),
	)
}

func newTracker(store *memStore, vision *stubVision, ev *recorder) *Tracker {
	return &Tracker{
		Log:      zap.NewNop(),
		Store:    store,
		Vision:   vision,
		Matchups: stubResolver{m: &wager.Matchup{LeagueID: 1, HomeTeamID: 10, AwayTeamID: 11}},
		Catalog:  stubCatalog{snap: nflSnapshot()},
		Events:   ev,
		Now:      func() time.Time { return time.Date(2025, 10, 19, 15, 0, 0, 0, time.UTC) },
	}
}

// ---- tests ----

func TestTrackSuccess(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	vision := &stubVision{out: chiefsJSON}
	tr := newTracker(store, vision, ev)
	tracked := 0
	tr.OnTracked = func() { tracked++ }

	res, err := tr.Track(context.Background(), TrackInput{UserID: "u1", ImageURL: "https://img/1.png"})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	w := res.Wager
	if w.ID == "" || w.UserID != "u1" || w.Status != wager.StatusOpen {
		t.Errorf("wager = %+v", w)
	}
	if !w.Amount.Equal(decimal.NewFromInt(50)) || w.Line != "-110" {
		t.Errorf("amount/line = %s / %s", w.Amount, w.Line)
	}
	if w.Matchup == nil || w.Matchup.HomeTeamID != 10 {
		t.Errorf("matchup = %+v", w.Matchup)
	}
	if tracked != 1 || len(ev.tracked) != 1 || !ev.tracked[0].Matched || ev.tracked[0].UserID != "u1" {
		t.Errorf("tracked=%d events=%+v", tracked, ev.tracked)
	}
	if vision.calls != 1 {
		t.Errorf("vision calls = %d", vision.calls)
	}
}

func TestTrackRawOutputSkipsVision(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	vision := &stubVision{err: errors.New("should not be called")}
	tr := newTracker(store, vision, ev)

	if _, err := tr.Track(context.Background(), TrackInput{UserID: "u1", RawOutput: chiefsJSON}); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if vision.calls != 0 {
		t.Errorf("vision calls = %d, want 0", vision.calls)
	}
}

func TestTrackValidation(t *testing.T) {
	tr := newTracker(newMemStore(), &stubVision{}, &recorder{})
	tests := []TrackInput{
		{ImageURL: "https://img/1.png"},
		{UserID: "u1"},
		{UserID: "  ", RawOutput: chiefsJSON},
	}
	for _, in := range tests {
		if _, err := tr.Track(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Track(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestTrackExtractionFailure(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	tr := newTracker(store, &stubVision{out: "sorry, I cannot read this image"}, ev)
	failed := 0
	tr.OnExtractionFailed = func() { failed++ }
	guard := &memGuard{seen: map[string]bool{}}
	tr.Dedup = guard

	_, err := tr.Track(context.Background(), TrackInput{UserID: "u1", ImageURL: "https://img/x.png"})
	var f *extraction.Failure
	if !errors.As(err, &f) {
		t.Fatalf("err = %v, want *extraction.Failure", err)
	}
	if f.Raw == "" {
		t.Error("failure should carry the raw model output")
	}
	if failed != 1 || store.created != 0 || len(ev.tracked) != 0 {
		t.Errorf("failed=%d created=%d events=%d", failed, store.created, len(ev.tracked))
	}
	if guard.released != 1 {
		t.Errorf("dedup claim should be released on failure, released=%d", guard.released)
	}
}

func TestTrackDuplicate(t *testing.T) {
	store := newMemStore()
	tr := newTracker(store, &stubVision{out: chiefsJSON}, &recorder{})
	tr.Dedup = &memGuard{seen: map[string]bool{}}

	in := TrackInput{UserID: "u1", ImageURL: "https://img/1.png"}
	if _, err := tr.Track(context.Background(), in); err != nil {
		t.Fatalf("first Track: %v", err)
	}
	if _, err := tr.Track(context.Background(), in); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Track err = %v, want ErrDuplicate", err)
	}
	// outro usuário com a mesma imagem é permitido
	if _, err := tr.Track(context.Background(), TrackInput{UserID: "u2", ImageURL: in.ImageURL}); err != nil {
		t.Fatalf("other user Track: %v", err)
	}
	if store.created != 2 {
		t.Errorf("created = %d, want 2", store.created)
	}
}

func TestTrackUnresolvedMatchup(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	tr := newTracker(store, &stubVision{out: chiefsJSON}, ev)
	tr.Matchups = stubResolver{notes: []string{"league not found: xfl"}}
	unresolved := 0
	tr.OnUnresolved = func() { unresolved++ }

	res, err := tr.Track(context.Background(), TrackInput{UserID: "u1", ImageURL: "https://img/1.png"})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if res.Wager.Matchup != nil || len(res.Notes) != 1 || unresolved != 1 {
		t.Errorf("result = %+v, unresolved=%d", res, unresolved)
	}
	if ev.tracked[0].Matched {
		t.Error("event should report unmatched wager")
	}
}

func TestTrackScheduleEnrichment(t *testing.T) {
	kickoff := time.Date(2025, 10, 19, 17, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		sched ScheduleProvider
		want  *time.Time
	}{
		{
			name: "game found",
			sched: stubSchedule{games: []schedule.GameCard{{
				EventID: "1", StartTime: &kickoff,
				Teams: []schedule.TeamSide{{ExternalID: "12", IsHome: true}, {ExternalID: "13"}},
			}}},
			want: &kickoff,
		},
		{
			name:  "other teams",
			sched: stubSchedule{games: []schedule.GameCard{{EventID: "2", StartTime: &kickoff, Teams: []schedule.TeamSide{{ExternalID: "1"}, {ExternalID: "2"}}}}},
		},
		{
			name:  "provider error",
			sched: stubSchedule{err: errors.New("espn down")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(newMemStore(), &stubVision{out: chiefsJSON}, &recorder{})
			tr.Schedule = tt.sched
			res, err := tr.Track(context.Background(), TrackInput{UserID: "u1", ImageURL: "https://img/1.png"})
			if err != nil {
				t.Fatalf("Track: %v", err)
			}
			got := res.Wager.Matchup.ScheduledAt
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("scheduled_at = %v, want nil", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("scheduled_at = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetStatusToggle(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	tr := newTracker(store, &stubVision{out: chiefsJSON}, ev)
	res, err := tr.Track(context.Background(), TrackInput{UserID: "u1", ImageURL: "https://img/1.png"})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	id := res.Wager.ID

	w, err := tr.SetStatus(context.Background(), id, "WON")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if w.Status != wager.StatusWon || w.ResultedAt == nil {
		t.Errorf("after won: %+v", w)
	}
	w, err = tr.SetStatus(context.Background(), id, "won")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if w.Status != wager.StatusOpen || w.ResultedAt != nil {
		t.Errorf("toggle back: %+v", w)
	}
	if len(ev.status) != 2 || ev.status[0].From != "open" || ev.status[0].To != "won" || ev.status[1].To != "open" {
		t.Errorf("status events = %+v", ev.status)
	}

	if _, err := tr.SetStatus(context.Background(), id, "pending"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestSetLegStatus(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	tr := newTracker(store, &stubVision{}, ev)
	store.wagers["p1"] = wager.Wager{ID: "p1", UserID: "u1", Status: wager.StatusOpen,
		Legs: []wager.Leg{{ID: "l1", Status: wager.LegOpen}, {ID: "l2", Status: wager.LegOpen}}}

	w, err := tr.SetLegStatus(context.Background(), "p1", "l2", "lost")
	if err != nil {
		t.Fatalf("SetLegStatus: %v", err)
	}
	if w.Legs[1].Status != wager.LegLost {
		t.Errorf("legs = %+v", w.Legs)
	}
	if len(ev.status) != 1 || ev.status[0].LegID != "l2" || ev.status[0].To != "lost" {
		t.Errorf("events = %+v", ev.status)
	}
	if _, err := tr.SetLegStatus(context.Background(), "p1", "nope", "won"); err == nil {
		t.Error("unknown leg should fail")
	}
}

func TestArchiveReactedAndDelete(t *testing.T) {
	store, ev := newMemStore(), &recorder{}
	tr := newTracker(store, &stubVision{}, ev)
	store.wagers["a1"] = wager.Wager{ID: "a1", UserID: "u9", Status: wager.StatusLost, Archived: true}

	w, err := tr.MarkArchiveReacted(context.Background(), "a1")
	if err != nil || !w.ArchiveReacted {
		t.Fatalf("MarkArchiveReacted = %+v, %v", w, err)
	}
	if len(ev.archived) != 1 || !ev.archived[0].Reacted {
		t.Errorf("archived events = %+v", ev.archived)
	}

	if err := tr.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(ev.status) != 1 || ev.status[0].To != StatusDeleted || ev.status[0].UserID != "u9" {
		t.Errorf("delete event = %+v", ev.status)
	}
	if err := tr.Delete(context.Background(), "a1"); !errors.Is(err, errNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestMatchText(t *testing.T) {
	tr := newTracker(newMemStore(), &stubVision{}, &recorder{})

	ms, err := tr.MatchText(context.Background(), "NFL", "Chiefs -3.5 vs Raiders")
	if err != nil {
		t.Fatalf("MatchText: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("matches = %+v", ms)
	}
	if _, err := tr.MatchText(context.Background(), "xfl", "anything"); !errors.Is(err, ErrUnknownLeague) {
		t.Errorf("err = %v, want ErrUnknownLeague", err)
	}

	tr.Catalog = stubCatalog{}
	if _, err := tr.MatchText(context.Background(), "nfl", "Chiefs"); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("err = %v, want ErrCatalogUnavailable", err)
	}
}
