package memory

import (
	"context"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/store"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	items  map[string]team.Team
	orders []string
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{items: make(map[string]team.Team)}
}

func (r *TeamRepository) FindByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}
	return cloneTeam(t), true, nil
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return store.ErrConflict
	}
	r.items[item.ID] = cloneTeam(item)
	r.orders = append(r.orders, item.ID)
	return nil
}

func (r *TeamRepository) AppendAlias(_ context.Context, teamID, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return store.ErrNotFound
	}
	if next, changed := t.WithAlias(alias); changed {
		r.items[teamID] = next
	}
	return nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, cloneTeam(r.items[id]))
	}
	return out, nil
}

func cloneTeam(t team.Team) team.Team {
	t.Aliases = append([]string(nil), t.Aliases...)
	return t
}
