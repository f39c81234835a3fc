package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bglitzendorf/hoopstats/internal/domain/store"
	qb "github.com/bglitzendorf/hoopstats/internal/platform/querybuilder"
)

// appendAlias adds alias to the aliases column of one teams/players row
// unless it already equals the name or an existing alias, ignoring case.
func appendAlias(ctx context.Context, db *sqlx.DB, table, rowID, alias string) error {
	query, args, err := qb.Update(table).
		SetExpr("aliases", "array_append(aliases, ?::text)", alias).
		Where(
			qb.Eq("id", rowID),
			qb.Expr("lower(name) <> lower(?::text)", alias),
			qb.Expr("NOT EXISTS (SELECT 1 FROM unnest(aliases) AS a WHERE lower(a) = lower(?::text))", alias),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build append %s alias query: %w", table, err)
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("append %s alias: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append %s alias rows affected: %w", table, err)
	}
	if affected > 0 {
		return nil
	}

	existsQuery, existsArgs, err := qb.Count(table, qb.Eq("id", rowID))
	if err != nil {
		return fmt.Errorf("build %s exists query: %w", table, err)
	}
	var n int
	if err := db.GetContext(ctx, &n, existsQuery, existsArgs...); err != nil {
		return fmt.Errorf("check %s exists: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("append %s alias %s: %w", table, rowID, store.ErrNotFound)
	}
	return nil
}
