package memory

import (
	"context"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

type BoxscoreRepository struct {
	mu      sync.RWMutex
	items   map[boxscore.Key]boxscore.Row
	byMatch map[string][]boxscore.Key
}

func NewBoxscoreRepository() *BoxscoreRepository {
	return &BoxscoreRepository{
		items:   make(map[boxscore.Key]boxscore.Row),
		byMatch: make(map[string][]boxscore.Key),
	}
}

func (r *BoxscoreRepository) FindByKey(_ context.Context, key boxscore.Key) (boxscore.Row, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.items[key]
	return row, ok, nil
}

func (r *BoxscoreRepository) Create(_ context.Context, row boxscore.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := row.Key()
	if _, ok := r.items[key]; ok {
		return store.ErrConflict
	}
	r.items[key] = row
	r.byMatch[row.MatchID] = append(r.byMatch[row.MatchID], key)
	return nil
}

// ListByMatch returns rows in insertion order.
func (r *BoxscoreRepository) ListByMatch(_ context.Context, matchID string) ([]boxscore.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.byMatch[matchID]
	out := make([]boxscore.Row, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.items[key])
	}
	return out, nil
}

func (r *BoxscoreRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}
