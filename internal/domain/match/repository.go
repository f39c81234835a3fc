package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	FindByID(ctx context.Context, matchID string) (Match, bool, error)
	Create(ctx context.Context, item Match) error
	// UpdateStatus advances a scheduled match to finished and sets its
	// result. It is a no-op for any other transition.
	UpdateStatus(ctx context.Context, matchID string, status Status, result string) (bool, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Match, error)
	Count(ctx context.Context) (int, error)
}
