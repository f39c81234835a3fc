package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

// saveIssueConflict refreshes an issue in place. Confirmed and ignored
// issues keep their status.
const saveIssueConflict = `ON CONFLICT (id) DO UPDATE SET
	type = EXCLUDED.type,
	match_id = EXCLUDED.match_id,
	season_id = EXCLUDED.season_id,
	league_id = EXCLUDED.league_id,
	session_id = EXCLUDED.session_id,
	description = EXCLUDED.description,
	created_at = EXCLUDED.created_at,
	status = CASE WHEN qa_issues.status IN ('confirmed', 'ignored') THEN qa_issues.status ELSE EXCLUDED.status END,
	updated_at = NOW()`

type QAIssueRepository struct {
	db *sqlx.DB
}

func NewQAIssueRepository(db *sqlx.DB) *QAIssueRepository {
	return &QAIssueRepository{db: db}
}

func (r *QAIssueRepository) Save(ctx context.Context, issue qaissue.Issue) error {
	status := issue.Status
	if status == "" {
		status = qaissue.StatusOpen
	}
	query, args, err := qb.InsertModel("qa_issues", qaIssueInsertModel{
		ID:          issue.ID,
		Type:        string(issue.Type),
		MatchID:     issue.MatchID,
		SeasonID:    issue.SeasonID,
		LeagueID:    issue.LeagueID,
		SessionID:   issue.SessionID,
		Description: issue.Description,
		Status:      string(status),
		CreatedAt:   issue.CreatedAt.UTC(),
	}, saveIssueConflict)
	if err != nil {
		return fmt.Errorf("build save qa issue query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save qa issue %s: %w", issue.ID, err)
	}
	return nil
}

func (r *QAIssueRepository) FindByID(ctx context.Context, id string) (qaissue.Issue, bool, error) {
	query, args, err := qb.Select("*").From("qa_issues").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return qaissue.Issue{}, false, fmt.Errorf("build get qa issue query: %w", err)
	}

	var row qaIssueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return qaissue.Issue{}, false, nil
		}
		return qaissue.Issue{}, false, fmt.Errorf("get qa issue: %w", err)
	}
	return qaIssueFromRow(row), true, nil
}

// List returns issues newest first; limit <= 0 returns all.
func (r *QAIssueRepository) List(ctx context.Context, limit int) ([]qaissue.Issue, error) {
	query, args, err := qb.Select("*").From("qa_issues").
		OrderBy("created_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select qa issues query: %w", err)
	}

	var rows []qaIssueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select qa issues: %w", err)
	}

	out := make([]qaissue.Issue, 0, len(rows))
	for _, row := range rows {
		out = append(out, qaIssueFromRow(row))
	}
	return out, nil
}

func (r *QAIssueRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "qa_issues")
}

func qaIssueFromRow(row qaIssueTableModel) qaissue.Issue {
	return qaissue.Issue{
		ID:          row.ID,
		Type:        qaissue.Type(row.Type),
		MatchID:     row.MatchID,
		SeasonID:    row.SeasonID,
		LeagueID:    row.LeagueID,
		SessionID:   row.SessionID,
		Description: row.Description,
		Status:      qaissue.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}
