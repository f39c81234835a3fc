package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	FindByID(ctx context.Context, teamID string) (Team, bool, error)
	Create(ctx context.Context, item Team) error
	AppendAlias(ctx context.Context, teamID, alias string) error
	List(ctx context.Context) ([]Team, error)
}
