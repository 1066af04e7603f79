package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL é o intervalo máximo entre recargas do catálogo
const DefaultTTL = 15 * time.Minute

// Store é a fonte de leitura do catálogo (ligas e times pré-carregados)
type Store interface {
	ListLeagues(ctx context.Context) ([]League, error)
	ListTeams(ctx context.Context, leagueID int64) ([]Team, error)
}

// Snapshot é uma versão completa do catálogo; nunca é alterada depois de criada
type Snapshot struct {
	LoadedAt time.Time

	leagues map[string]League
	indexes map[int64]*Index
}

// NewSnapshot monta ligas (por key minúscula) e um índice por liga
func NewSnapshot(leagues []League, teams map[int64][]Team, at time.Time) *Snapshot {
	s := &Snapshot{
		LoadedAt: at,
		leagues:  make(map[string]League, len(leagues)),
		indexes:  make(map[int64]*Index, len(leagues)),
	}
	for _, l := range leagues {
		s.leagues[strings.ToLower(strings.TrimSpace(l.Key))] = l
		s.indexes[l.ID] = BuildIndex(teams[l.ID])
	}
	return s
}

func (s *Snapshot) League(key string) (League, bool) {
	if s == nil {
		return League{}, false
	}
	l, ok := s.leagues[strings.ToLower(strings.TrimSpace(key))]
	return l, ok
}

// Index devolve o índice da liga; liga desconhecida => índice vazio
func (s *Snapshot) Index(leagueID int64) *Index {
	if s != nil {
		if ix, ok := s.indexes[leagueID]; ok {
			return ix
		}
	}
	return BuildIndex(nil)
}

func (s *Snapshot) Leagues() []League {
	if s == nil {
		return nil
	}
	out := make([]League, 0, len(s.leagues))
	for _, l := range s.leagues {
		out = append(out, l)
	}
	return out
}

// Load lê o catálogo inteiro do store
func Load(ctx context.Context, store Store, now time.Time) (*Snapshot, error) {
	leagues, err := store.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	teams := make(map[int64][]Team, len(leagues))
	for _, l := range leagues {
		ts, err := store.ListTeams(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("list teams league=%s: %w", l.Key, err)
		}
		teams[l.ID] = ts
	}
	return NewSnapshot(leagues, teams, now), nil
}

// Cache mantém o snapshot corrente. Leitores só fazem Load atômico;
// recargas são serializadas e trocam o ponteiro inteiro.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

func NewCache(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

func (c *Cache) fresh(s *Snapshot) bool {
	return s != nil && c.now().Sub(s.LoadedAt) < c.ttl
}

// Snapshot devolve o snapshot corrente, recarregando quando expirado.
// Se a recarga falhar e já houver um snapshot, ele é devolvido junto com o erro.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := c.snap.Load(); c.fresh(s) {
		return s, nil
	}
	return c.Refresh(ctx, false)
}

// Refresh recarrega o catálogo; sem force só recarrega se expirado
func (c *Cache) Refresh(ctx context.Context, force bool) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if !force && c.fresh(cur) {
		return cur, nil
	}
	next, err := Load(ctx, c.store, c.now())
	if err != nil {
		return cur, err
	}
	c.snap.Store(next)
	return next, nil
}
