package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/player"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) FindByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}
	return team.Team{ID: row.ID, Name: row.Name, Aliases: aliasesOf(row.Aliases)}, true, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	query, args, err := qb.InsertModel("teams", teamInsertModel{
		ID:      item.ID,
		Name:    item.Name,
		Aliases: stringArray(item.Aliases),
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	return insertOne(ctx, r.db, "team "+item.ID, query, args)
}

func (r *TeamRepository) AppendAlias(ctx context.Context, teamID, alias string) error {
	return appendAlias(ctx, r.db, "teams", teamID, alias)
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{ID: row.ID, Name: row.Name, Aliases: aliasesOf(row.Aliases)})
	}
	return out, nil
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) FindByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player by id query: %w", err)
	}
	return r.get(ctx, query, args)
}

// FindByName is an exact match on the canonical name. Aliases are not
// consulted.
func (r *PlayerRepository) FindByName(ctx context.Context, name string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("name", name)).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player by name query: %w", err)
	}
	return r.get(ctx, query, args)
}

func (r *PlayerRepository) get(ctx context.Context, query string, args []any) (player.Player, bool, error) {
	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return player.Player{ID: row.ID, Name: row.Name, Aliases: aliasesOf(row.Aliases)}, true, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	query, args, err := qb.InsertModel("players", playerInsertModel{
		ID:      item.ID,
		Name:    item.Name,
		Aliases: stringArray(item.Aliases),
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}
	return insertOne(ctx, r.db, "player "+item.ID, query, args)
}

func (r *PlayerRepository) AppendAlias(ctx context.Context, playerID, alias string) error {
	return appendAlias(ctx, r.db, "players", playerID, alias)
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "players")
}
