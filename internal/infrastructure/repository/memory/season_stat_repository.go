package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

type SeasonStatRepository struct {
	mu    sync.RWMutex
	items map[seasonstat.Key]seasonstat.Stat
}

func NewSeasonStatRepository() *SeasonStatRepository {
	return &SeasonStatRepository{items: make(map[seasonstat.Key]seasonstat.Stat)}
}

func (r *SeasonStatRepository) FindByKey(_ context.Context, key seasonstat.Key) (seasonstat.Stat, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[key]
	return s, ok, nil
}

func (r *SeasonStatRepository) Create(_ context.Context, item seasonstat.Stat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := item.Key()
	if _, ok := r.items[key]; ok {
		return store.ErrConflict
	}
	r.items[key] = item
	return nil
}

func (r *SeasonStatRepository) ReplaceDerived(_ context.Context, item seasonstat.Stat) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := item.Key()
	existing, ok := r.items[key]
	if !ok || !existing.Derived {
		return false, nil
	}
	item.Derived = true
	r.items[key] = item
	return true, nil
}

func (r *SeasonStatRepository) ListBySeason(_ context.Context, seasonID string) ([]seasonstat.Stat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]seasonstat.Stat, 0)
	for key, s := range r.items {
		if key.SeasonID == seasonID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *SeasonStatRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}
