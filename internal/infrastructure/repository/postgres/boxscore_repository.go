package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

type BoxscoreRepository struct {
	db *sqlx.DB
}

func NewBoxscoreRepository(db *sqlx.DB) *BoxscoreRepository {
	return &BoxscoreRepository{db: db}
}

func (r *BoxscoreRepository) FindByKey(ctx context.Context, key boxscore.Key) (boxscore.Row, bool, error) {
	query, args, err := qb.Select("*").From("boxscore_rows").
		Where(
			qb.Eq("match_id", key.MatchID),
			qb.Eq("team_id", key.TeamID),
			qb.Eq("player_key", key.PlayerKey),
		).
		ToSQL()
	if err != nil {
		return boxscore.Row{}, false, fmt.Errorf("build get boxscore row query: %w", err)
	}

	var row boxscoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return boxscore.Row{}, false, nil
		}
		return boxscore.Row{}, false, fmt.Errorf("get boxscore row: %w", err)
	}
	return boxscoreFromRow(row), true, nil
}

func (r *BoxscoreRepository) Create(ctx context.Context, item boxscore.Row) error {
	key := item.Key()
	rowID := item.ID
	if rowID == "" {
		rowID = key.MatchID + "|" + key.TeamID + "|" + key.PlayerKey
	}
	query, args, err := qb.InsertModel("boxscore_rows", boxscoreInsertModel{
		ID:         rowID,
		MatchID:    item.MatchID,
		TeamID:     item.TeamID,
		PlayerID:   item.PlayerID,
		PlayerKey:  key.PlayerKey,
		PlayerName: item.PlayerName,
		Pts:        item.Pts,
		ThreePm:    item.ThreePm,
		ThreePa:    item.ThreePa,
		Ftm:        item.Ftm,
		Fta:        item.Fta,
		Source:     string(item.Provenance.Source),
		ScrapedAt:  item.Provenance.ScrapedAt,
	}, insertOrSkip)
	if err != nil {
		return fmt.Errorf("build insert boxscore row query: %w", err)
	}
	return insertOne(ctx, r.db, "boxscore row "+rowID, query, args)
}

func (r *BoxscoreRepository) ListByMatch(ctx context.Context, matchID string) ([]boxscore.Row, error) {
	query, args, err := qb.Select("*").From("boxscore_rows").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select boxscore rows query: %w", err)
	}

	var rows []boxscoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select boxscore rows: %w", err)
	}

	out := make([]boxscore.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, boxscoreFromRow(row))
	}
	return out, nil
}

func (r *BoxscoreRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "boxscore_rows")
}

func boxscoreFromRow(row boxscoreTableModel) boxscore.Row {
	return boxscore.Row{
		ID:         row.ID,
		MatchID:    row.MatchID,
		TeamID:     row.TeamID,
		PlayerID:   row.PlayerID,
		PlayerName: row.PlayerName,
		Pts:        row.Pts,
		ThreePm:    row.ThreePm,
		ThreePa:    row.ThreePa,
		Ftm:        row.Ftm,
		Fta:        row.Fta,
		Provenance: provenanceOf(row.Source, row.ScrapedAt),
	}
}
