package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) FindByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	status := item.Status
	if status == "" {
		status = match.StatusScheduled
	}
	query, args, err := qb.InsertModel("matches", matchInsertModel{
		ID:          item.ID,
		MatchNo:     item.MatchNo,
		SeasonID:    item.SeasonID,
		LigaID:      item.LigaID,
		MatchDate:   nullTime(item.Date),
		HomeTeamID:  item.HomeTeamID,
		GuestTeamID: item.GuestTeamID,
		Result:      nullString(item.Result),
		Status:      string(status),
		Synthetic:   item.Synthetic,
		Source:      string(item.Provenance.Source),
		ScrapedAt:   item.Provenance.ScrapedAt,
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}
	return insertOne(ctx, r.db, "match "+item.ID, query, args)
}

// UpdateStatus only ever moves a stored scheduled row to finished; the
// status predicate makes the transition atomic.
func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, status match.Status, result string) (bool, error) {
	if !match.CanTransition(match.StatusScheduled, status) {
		return false, nil
	}

	query, args, err := qb.Update("matches").
		Set("status", string(status)).
		Set("result", nullString(result)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", matchID),
			qb.Eq("status", string(match.StatusScheduled)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update match status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update match status rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) ListBySeason(ctx context.Context, seasonID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("match_date ASC NULLS FIRST", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by season query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches by season: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "matches")
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:          row.ID,
		MatchNo:     row.MatchNo,
		SeasonID:    row.SeasonID,
		LigaID:      row.LigaID,
		Date:        timeOf(row.MatchDate),
		HomeTeamID:  row.HomeTeamID,
		GuestTeamID: row.GuestTeamID,
		Result:      row.Result.String,
		Status:      match.Status(row.Status),
		Synthetic:   row.Synthetic,
		Provenance:  provenanceOf(row.Source, row.ScrapedAt),
	}
}
