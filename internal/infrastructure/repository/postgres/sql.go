package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

const (
	uniqueViolation = pq.ErrorCode("23505")

	// insertOrSkip makes every Create an atomic check-and-insert on the
	// table's unique constraints.
	insertOrSkip = "ON CONFLICT DO NOTHING RETURNING 1"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// insertOne executes an insertOrSkip statement. No returned row means a
// unique constraint already held the key.
func insertOne(ctx context.Context, db sqlx.QueryerContext, what, query string, args []any) error {
	var inserted int
	return insertErr(what, sqlx.GetContext(ctx, db, &inserted, query, args...))
}

func insertErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err), isUniqueViolation(err):
		return fmt.Errorf("insert %s: %w", what, store.ErrConflict)
	default:
		return fmt.Errorf("insert %s: %w", what, err)
	}
}

func count(ctx context.Context, db sqlx.QueryerContext, table string) (int, error) {
	query, args, err := qb.Count(table)
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", table, err)
	}
	var n int
	if err := sqlx.GetContext(ctx, db, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timeOf(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func provenanceOf(source string, scrapedAt time.Time) provenance.Provenance {
	return provenance.New(provenance.Source(source), scrapedAt)
}

func aliasesOf(v pq.StringArray) []string {
	if len(v) == 0 {
		return nil
	}
	return append([]string(nil), v...)
}
