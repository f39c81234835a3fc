package boxscore

import "context"

type Repository interface {
	FindByKey(ctx context.Context, key Key) (Row, bool, error)
	Create(ctx context.Context, row Row) error
	ListByMatch(ctx context.Context, matchID string) ([]Row, error)
	Count(ctx context.Context) (int, error)
}
