package stats

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-tracker/internal/wager"
)

// Window é o tamanho da janela móvel em dias
type Window int

const (
	Window30  Window = 30
	Window90  Window = 90
	Window180 Window = 180
	Window365 Window = 365

	DefaultWindow = Window30
)

// Windows lista as janelas suportadas (chaves de cache por janela)
var Windows = []Window{Window30, Window90, Window180, Window365}

const dayLayout = "2006-01-02"

// ParseWindow aceita "30", "90", "180", "365" (com ou sem sufixo "d");
// qualquer outro valor cai na janela padrão.
func ParseWindow(s string) Window {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultWindow
	}
	switch w := Window(n); w {
	case Window30, Window90, Window180, Window365:
		return w
	}
	return DefaultWindow
}

// WagerRef é a aposta resumida anexada a um ponto da série (drill-down)
type WagerRef struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Status      wager.Status     `json:"status"`
	IsFreePlay  bool             `json:"is_free_play"`
	IsLiveBet   bool             `json:"is_live_bet"`
	ProfitDelta *decimal.Decimal `json:"profit_delta,omitempty"`
}

type PlacedPoint struct {
	Day    string     `json:"day"`
	Count  int        `json:"count"`
	Wagers []WagerRef `json:"wagers"`
}

type ResultPoint struct {
	Day        string          `json:"day"`
	Profit     decimal.Decimal `json:"profit"`
	Cumulative decimal.Decimal `json:"cumulative"`
	Wagers     []WagerRef      `json:"wagers"`
}

type Summary struct {
	Window int    `json:"window"`
	Start  string `json:"start"`
	End    string `json:"end"`

	Total    int `json:"total"`
	Wins     int `json:"wins"`
	Losses   int `json:"losses"`
	Open     int `json:"open"`
	Removed  int `json:"removed"`
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`

	TotalStaked decimal.Decimal `json:"total_staked"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	WinRate     decimal.Decimal `json:"win_rate"`

	PlacedBeforeWindow int             `json:"placed_before_window"`
	ProfitBeforeWindow decimal.Decimal `json:"profit_before_window"`

	Placed  []PlacedPoint `json:"placed"`
	Results []ResultPoint `json:"results"`
}

// valid descarta registros que não dá para agregar sem inventar dados
func valid(w wager.Wager) bool {
	if _, ok := wager.ParseStatus(string(w.Status)); !ok {
		return false
	}
	return !w.Amount.IsNegative() && !w.CreatedAt.IsZero()
}

// ResultDay é o instante em que a aposta conta no lucro:
// resulted_at, senão horário do jogo, senão criação
func ResultDay(w wager.Wager) time.Time {
	if w.ResultedAt != nil && !w.ResultedAt.IsZero() {
		return *w.ResultedAt
	}
	if w.Matchup != nil && w.Matchup.ScheduledAt != nil && !w.Matchup.ScheduledAt.IsZero() {
		return *w.Matchup.ScheduledAt
	}
	return w.CreatedAt
}

func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ref(w wager.Wager) WagerRef {
	return WagerRef{
		ID:          w.ID,
		Description: w.Description,
		Amount:      w.Amount,
		Status:      w.Status,
		IsFreePlay:  w.IsFreePlay,
		IsLiveBet:   w.IsLiveBet,
	}
}

// Summarize agrega as apostas de um usuário. Contagens e totais cobrem todas
// as apostas; as séries diárias cobrem só a janela terminando no dia de now (em loc).
// Não altera a entrada e pode ser chamada concorrentemente.
func Summarize(wagers []wager.Wager, window Window, now time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	days := int(window)
	if days <= 0 {
		days = int(DefaultWindow)
	}

	end := civil(now, loc)
	start := end.AddDate(0, 0, -(days - 1))

	s := Summary{
		Window:             days,
		Start:              start.Format(dayLayout),
		End:                end.Format(dayLayout),
		TotalStaked:        decimal.Zero,
		TotalProfit:        decimal.Zero,
		WinRate:            decimal.Zero,
		ProfitBeforeWindow: decimal.Zero,
		Placed:             make([]PlacedPoint, days),
		Results:            make([]ResultPoint, days),
	}
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		s.Placed[i] = PlacedPoint{Day: day, Wagers: []WagerRef{}}
		s.Results[i] = ResultPoint{Day: day, Profit: decimal.Zero, Cumulative: decimal.Zero, Wagers: []WagerRef{}}
	}

	// índice do dia na janela; -1 para antes do início, clamp no último dia
	bucket := func(t time.Time) int {
		idx := int(civil(t, loc).Sub(start).Hours() / 24)
		if idx < 0 {
			return -1
		}
		if idx >= days {
			return days - 1
		}
		return idx
	}

	for _, w := range wagers {
		if !valid(w) {
			s.Skipped++
			continue
		}
		s.Total++
		switch w.Status {
		case wager.StatusWon:
			s.Wins++
		case wager.StatusLost:
			s.Losses++
		case wager.StatusOpen:
			s.Open++
		case wager.StatusRemoved:
			s.Removed++
		}
		if w.Archived {
			s.Archived++
		}
		if !w.IsFreePlay {
			s.TotalStaked = s.TotalStaked.Add(w.Amount)
		}
		delta := w.ProfitDelta()
		s.TotalProfit = s.TotalProfit.Add(delta)

		if i := bucket(w.CreatedAt); i < 0 {
			s.PlacedBeforeWindow++
		} else {
			s.Placed[i].Count++
			s.Placed[i].Wagers = append(s.Placed[i].Wagers, ref(w))
		}

		if !w.Status.Decided() {
			continue
		}
		if i := bucket(ResultDay(w)); i < 0 {
			s.ProfitBeforeWindow = s.ProfitBeforeWindow.Add(delta)
		} else {
			r := ref(w)
			r.ProfitDelta = &delta
			s.Results[i].Profit = s.Results[i].Profit.Add(delta)
			s.Results[i].Wagers = append(s.Results[i].Wagers, r)
		}
	}

	running := s.ProfitBeforeWindow
	for i := range s.Results {
		running = running.Add(s.Results[i].Profit)
		s.Results[i].Cumulative = running
	}

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(decided))).
			Round(2)
	}
	return s
}
