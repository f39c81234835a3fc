package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

const saveSessionConflict = `ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	finished_at = EXCLUDED.finished_at,
	total_requests = EXCLUDED.total_requests,
	successful = EXCLUDED.successful,
	failed = EXCLUDED.failed,
	leagues_discovered = EXCLUDED.leagues_discovered,
	status = EXCLUDED.status`

type CrawlRepository struct {
	db *sqlx.DB
}

func NewCrawlRepository(db *sqlx.DB) *CrawlRepository {
	return &CrawlRepository{db: db}
}

func (r *CrawlRepository) SaveSession(ctx context.Context, session crawl.Session) error {
	query, args, err := qb.InsertModel("crawl_sessions", crawlSessionTableModel{
		ID:                session.ID,
		Name:              session.Name,
		StartedAt:         session.StartedAt.UTC(),
		FinishedAt:        nullTime(session.FinishedAt),
		TotalRequests:     session.TotalRequests,
		Successful:        session.Successful,
		Failed:            session.Failed,
		LeaguesDiscovered: session.LeaguesDiscovered,
		Status:            string(session.Status),
	}, saveSessionConflict)
	if err != nil {
		return fmt.Errorf("build save crawl session query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save crawl session %s: %w", session.ID, err)
	}
	return nil
}

// AppendLogs inserts the batch in one transaction; ids already stored are
// skipped.
func (r *CrawlRepository) AppendLogs(ctx context.Context, logs []crawl.LogEntry) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append crawl logs: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, entry := range logs {
		query, args, err := qb.InsertModel("crawl_logs", crawlLogTableModel{
			ID:             entry.ID,
			SessionID:      entry.SessionID,
			LoggedAt:       entry.Timestamp.UTC(),
			Level:          string(entry.Level),
			Message:        entry.Message,
			URL:            entry.URL,
			Status:         entry.Status,
			ResponseTimeMs: entry.ResponseTimeMs,
			ResponseBytes:  entry.ResponseBytes,
			LeagueID:       entry.LeagueID,
		}, "ON CONFLICT (id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build insert crawl log query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert crawl log %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append crawl logs tx: %w", err)
	}
	return nil
}

func (r *CrawlRepository) ListSessions(ctx context.Context, limit int) ([]crawl.Session, error) {
	query, args, err := qb.Select("*").From("crawl_sessions").
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select crawl sessions query: %w", err)
	}

	var rows []crawlSessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select crawl sessions: %w", err)
	}

	out := make([]crawl.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, crawl.Session{
			ID:                row.ID,
			Name:              row.Name,
			StartedAt:         row.StartedAt.UTC(),
			FinishedAt:        timeOf(row.FinishedAt),
			TotalRequests:     row.TotalRequests,
			Successful:        row.Successful,
			Failed:            row.Failed,
			LeaguesDiscovered: row.LeaguesDiscovered,
			Status:            crawl.SessionStatus(row.Status),
		})
	}
	return out, nil
}

func (r *CrawlRepository) ListLogs(ctx context.Context, limit int) ([]crawl.LogEntry, error) {
	query, args, err := qb.Select("*").From("crawl_logs").
		OrderBy("logged_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select crawl logs query: %w", err)
	}

	var rows []crawlLogTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select crawl logs: %w", err)
	}

	out := make([]crawl.LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, crawl.LogEntry{
			ID:             row.ID,
			SessionID:      row.SessionID,
			Timestamp:      row.LoggedAt.UTC(),
			Level:          crawl.Level(row.Level),
			Message:        row.Message,
			URL:            row.URL,
			Status:         row.Status,
			ResponseTimeMs: row.ResponseTimeMs,
			ResponseBytes:  row.ResponseBytes,
			LeagueID:       row.LeagueID,
		})
	}
	return out, nil
}
