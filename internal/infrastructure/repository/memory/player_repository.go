package memory

import (
	"context"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/player"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

type PlayerRepository struct {
	mu     sync.RWMutex
	items  map[string]player.Player
	byName map[string]string
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		items:  make(map[string]player.Player),
		byName: make(map[string]string),
	}
}

func (r *PlayerRepository) FindByID(_ context.Context, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[playerID]
	if !ok {
		return player.Player{}, false, nil
	}
	return clonePlayer(p), true, nil
}

// FindByName matches the stored name exactly.
func (r *PlayerRepository) FindByName(_ context.Context, name string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	playerID, ok := r.byName[name]
	if !ok {
		return player.Player{}, false, nil
	}
	return clonePlayer(r.items[playerID]), true, nil
}

func (r *PlayerRepository) Create(_ context.Context, item player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return store.ErrConflict
	}
	if _, ok := r.byName[item.Name]; ok {
		return store.ErrConflict
	}
	r.items[item.ID] = clonePlayer(item)
	r.byName[item.Name] = item.ID
	return nil
}

func (r *PlayerRepository) AppendAlias(_ context.Context, playerID, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[playerID]
	if !ok {
		return store.ErrNotFound
	}
	if next, changed := p.WithAlias(alias); changed {
		r.items[playerID] = next
	}
	return nil
}

func (r *PlayerRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

func clonePlayer(p player.Player) player.Player {
	p.Aliases = append([]string(nil), p.Aliases...)
	return p
}
