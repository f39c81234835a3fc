package memory

import (
	"context"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

type LeagueRepository struct {
	mu        sync.RWMutex
	items     map[league.Key]league.League
	synthetic map[string]league.Key
	orders    []league.Key
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	r := &LeagueRepository{
		items:     make(map[league.Key]league.League, len(leagues)),
		synthetic: make(map[string]league.Key),
	}
	for _, l := range leagues {
		_ = r.insert(l)
	}
	return r
}

func (r *LeagueRepository) FindByKey(_ context.Context, key league.Key) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[key]
	return l, ok, nil
}

func (r *LeagueRepository) FindSynthetic(_ context.Context, name, seasonID string, source provenance.Source) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	probe := league.League{Name: name, SeasonID: seasonID, Provenance: provenance.Provenance{Source: source}}
	key, ok := r.synthetic[probe.DedupeKey()]
	if !ok {
		return league.League{}, false, nil
	}
	return r.items[key], true, nil
}

func (r *LeagueRepository) Create(_ context.Context, item league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert(item)
}

func (r *LeagueRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

func (r *LeagueRepository) insert(item league.League) error {
	key := item.Key()
	if _, ok := r.items[key]; ok {
		return store.ErrConflict
	}
	if item.Synthetic {
		dedupe := item.DedupeKey()
		if _, ok := r.synthetic[dedupe]; ok {
			return store.ErrConflict
		}
		r.synthetic[dedupe] = key
	}
	r.items[key] = item
	r.orders = append(r.orders, key)
	return nil
}
