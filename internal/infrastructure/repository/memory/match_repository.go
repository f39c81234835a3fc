package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{items: make(map[string]match.Match)}
}

func (r *MatchRepository) FindByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	return m, ok, nil
}

func (r *MatchRepository) Create(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return store.ErrConflict
	}
	r.items[item.ID] = item
	return nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, matchID string, status match.Status, result string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return false, store.ErrNotFound
	}
	if !match.CanTransition(m.Status, status) {
		return false, nil
	}
	m.Status = status
	if result != "" {
		m.Result = result
	}
	r.items[matchID] = m
	return true, nil
}

// ListBySeason returns matches ordered by date, then id.
func (r *MatchRepository) ListBySeason(_ context.Context, seasonID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range r.items {
		if m.SeasonID == seasonID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MatchRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}
