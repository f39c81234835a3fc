package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	FindByID(ctx context.Context, playerID string) (Player, bool, error)
	FindByName(ctx context.Context, name string) (Player, bool, error)
	Create(ctx context.Context, item Player) error
	AppendAlias(ctx context.Context, playerID, alias string) error
	Count(ctx context.Context) (int, error)
}
