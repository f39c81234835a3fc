package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

type SeasonStatRepository struct {
	db *sqlx.DB
}

func NewSeasonStatRepository(db *sqlx.DB) *SeasonStatRepository {
	return &SeasonStatRepository{db: db}
}

func (r *SeasonStatRepository) FindByKey(ctx context.Context, key seasonstat.Key) (seasonstat.Stat, bool, error) {
	query, args, err := qb.Select("*").From("season_stats").
		Where(
			qb.Eq("player_id", key.PlayerID),
			qb.Eq("season_id", key.SeasonID),
		).
		ToSQL()
	if err != nil {
		return seasonstat.Stat{}, false, fmt.Errorf("build get season stat query: %w", err)
	}

	var row seasonStatTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return seasonstat.Stat{}, false, nil
		}
		return seasonstat.Stat{}, false, fmt.Errorf("get season stat: %w", err)
	}
	return seasonStatFromRow(row), true, nil
}

// Create is first-write-wins on (player_id, season_id).
func (r *SeasonStatRepository) Create(ctx context.Context, item seasonstat.Stat) error {
	query, args, err := qb.InsertModel("season_stats", seasonStatInsertModel{
		PlayerID:      item.PlayerID,
		PlayerName:    item.PlayerName,
		SeasonID:      item.SeasonID,
		Points:        item.Points,
		Games:         item.Games,
		PointsPerGame: item.PointsPerGame,
		ThreePm:       item.ThreePm,
		ThreePa:       item.ThreePa,
		ThreePct:      item.ThreePct,
		Ftm:           item.Ftm,
		Fta:           item.Fta,
		FtPct:         item.FtPct,
		Source:        string(item.Provenance.Source),
		ScrapedAt:     item.Provenance.ScrapedAt,
		Derived:       item.Derived,
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert season stat query: %w", err)
	}
	return insertOne(ctx, r.db, fmt.Sprintf("season stat %s/%s", item.PlayerID, item.SeasonID), query, args)
}

// ReplaceDerived rewrites totals in place; the derived predicate keeps
// explicit rows untouched.
func (r *SeasonStatRepository) ReplaceDerived(ctx context.Context, item seasonstat.Stat) (bool, error) {
	query, args, err := qb.Update("season_stats").
		Set("player_name", item.PlayerName).
		Set("points", item.Points).
		Set("games", item.Games).
		Set("points_per_game", item.PointsPerGame).
		Set("three_pm", item.ThreePm).
		Set("three_pa", item.ThreePa).
		Set("three_pct", item.ThreePct).
		Set("ftm", item.Ftm).
		Set("fta", item.Fta).
		Set("ft_pct", item.FtPct).
		Set("source", string(item.Provenance.Source)).
		Set("scraped_at", item.Provenance.ScrapedAt).
		Where(
			qb.Eq("player_id", item.PlayerID),
			qb.Eq("season_id", item.SeasonID),
			qb.Eq("derived", true),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build replace season stat query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("replace season stat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace season stat rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SeasonStatRepository) ListBySeason(ctx context.Context, seasonID string) ([]seasonstat.Stat, error) {
	query, args, err := qb.Select("*").From("season_stats").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select season stats query: %w", err)
	}

	var rows []seasonStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select season stats: %w", err)
	}

	out := make([]seasonstat.Stat, 0, len(rows))
	for _, row := range rows {
		out = append(out, seasonStatFromRow(row))
	}
	return out, nil
}

func (r *SeasonStatRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "season_stats")
}

func seasonStatFromRow(row seasonStatTableModel) seasonstat.Stat {
	return seasonstat.Stat{
		PlayerID:      row.PlayerID,
		PlayerName:    row.PlayerName,
		SeasonID:      row.SeasonID,
		Points:        row.Points,
		Games:         row.Games,
		PointsPerGame: row.PointsPerGame,
		ThreePm:       row.ThreePm,
		ThreePa:       row.ThreePa,
		ThreePct:      row.ThreePct,
		Ftm:           row.Ftm,
		Fta:           row.Fta,
		FtPct:         row.FtPct,
		Provenance:    provenanceOf(row.Source, row.ScrapedAt),
		Derived:       row.Derived,
	}
}
