package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) FindByKey(ctx context.Context, key league.Key) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(
			qb.Eq("liga_id", key.LigaID),
			qb.Eq("season_id", key.SeasonID),
		).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league by key query: %w", err)
	}
	return r.get(ctx, query, args)
}

func (r *LeagueRepository) FindSynthetic(ctx context.Context, name, seasonID string, source provenance.Source) (league.League, bool, error) {
	probe := league.League{Name: name, SeasonID: seasonID, Provenance: provenance.Provenance{Source: source}}
	query, args, err := qb.Select("*").From("leagues").
		Where(
			qb.Eq("dedupe_key", probe.DedupeKey()),
			qb.Expr("synthetic"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get synthetic league query: %w", err)
	}
	return r.get(ctx, query, args)
}

func (r *LeagueRepository) get(ctx context.Context, query string, args []any) (league.League, bool, error) {
	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}

	return league.League{
		LigaID:     row.LigaID,
		SeasonID:   row.SeasonID,
		Name:       row.Name,
		Level:      row.Level,
		Region:     row.Region,
		Synthetic:  row.Synthetic,
		Provenance: provenanceOf(row.Source, row.ScrapedAt),
	}, true, nil
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	insertModel := leagueInsertModel{
		LigaID:    item.LigaID,
		SeasonID:  item.SeasonID,
		Name:      item.Name,
		Level:     item.Level,
		Region:    item.Region,
		Synthetic: item.Synthetic,
		DedupeKey: item.DedupeKey(),
		Source:    string(item.Provenance.Source),
		ScrapedAt: item.Provenance.ScrapedAt,
	}
	query, args, err := qb.InsertModel("leagues", insertModel, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert league query: %w", err)
	}
	return insertOne(ctx, r.db, "league "+item.Key().String(), query, args)
}

func (r *LeagueRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "leagues")
}

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) FindByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season by id query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season by id: %w", err)
	}
	return season.Season{ID: row.ID, Year: row.Year, LigaID: row.LigaID}, true, nil
}

func (r *SeasonRepository) Create(ctx context.Context, item season.Season) error {
	query, args, err := qb.InsertModel("seasons", seasonInsertModel{
		ID:     item.ID,
		Year:   item.Year,
		LigaID: item.LigaID,
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert season query: %w", err)
	}
	return insertOne(ctx, r.db, "season "+item.ID, query, args)
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, season.Season{ID: row.ID, Year: row.Year, LigaID: row.LigaID})
	}
	return out, nil
}
