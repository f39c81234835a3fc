package cache

import (
	"context"

	"github.com/bglitzendorf/hoopstats/internal/domain/player"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	basecache "github.com/bglitzendorf/hoopstats/internal/platform/cache"
)

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) FindByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, teamKey(teamID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.FindByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cloneTeam(cached.value), cached.exists, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	err := r.next.Create(ctx, item)
	// A conflict means another writer got there first; drop the stale miss either way.
	r.cache.Delete(ctx, teamKey(item.ID), teamListKey)
	return err
}

func (r *TeamRepository) AppendAlias(ctx context.Context, teamID, alias string) error {
	err := r.next.AppendAlias(ctx, teamID, alias)
	r.cache.Delete(ctx, teamKey(teamID), teamListKey)
	return err
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, teamListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	out := make([]team.Team, 0, len(items))
	for _, item := range items {
		out = append(out, cloneTeam(item))
	}
	return out, nil
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

const teamListKey = "team:list"

func teamKey(teamID string) string { return "team:id:" + teamID }

func cloneTeam(t team.Team) team.Team {
	t.Aliases = append([]string(nil), t.Aliases...)
	return t
}

// PlayerRepository caches id and exact-name lookups; boxscore ingestion
// resolves the same names once per row.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) FindByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	return r.load(ctx, playerIDKey(playerID), func(ctx context.Context) (player.Player, bool, error) {
		return r.next.FindByID(ctx, playerID)
	})
}

func (r *PlayerRepository) FindByName(ctx context.Context, name string) (player.Player, bool, error) {
	return r.load(ctx, playerNameKey(name), func(ctx context.Context) (player.Player, bool, error) {
		return r.next.FindByName(ctx, name)
	})
}

func (r *PlayerRepository) load(ctx context.Context, key string, find func(context.Context) (player.Player, bool, error)) (player.Player, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := find(ctx)
		if err != nil {
			return nil, err
		}
		return cachedPlayer{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayer)
	return clonePlayer(cached.value), cached.exists, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	err := r.next.Create(ctx, item)
	r.cache.Delete(ctx, playerIDKey(item.ID), playerNameKey(item.Name))
	return err
}

func (r *PlayerRepository) AppendAlias(ctx context.Context, playerID, alias string) error {
	err := r.next.AppendAlias(ctx, playerID, alias)
	// Name entries hold the full player, aliases included.
	r.cache.Delete(ctx, playerIDKey(playerID))
	r.cache.DeletePrefix(ctx, playerNamePrefix)
	return err
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

type cachedPlayer struct {
	value  player.Player
	exists bool
}

const playerNamePrefix = "player:name:"

func playerIDKey(playerID string) string { return "player:id:" + playerID }

func playerNameKey(name string) string { return playerNamePrefix + name }

func clonePlayer(p player.Player) player.Player {
	p.Aliases = append([]string(nil), p.Aliases...)
	return p
}
