package season

import "context"

type Repository interface {
	FindByID(ctx context.Context, seasonID string) (Season, bool, error)
	Create(ctx context.Context, item Season) error
	List(ctx context.Context) ([]Season, error)
}
