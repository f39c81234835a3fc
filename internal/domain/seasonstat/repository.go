package seasonstat

import "context"

type Repository interface {
	FindByKey(ctx context.Context, key Key) (Stat, bool, error)
	Create(ctx context.Context, item Stat) error
	// ReplaceDerived overwrites the stored row only while it is derived and
	// reports whether it did.
	ReplaceDerived(ctx context.Context, item Stat) (bool, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Stat, error)
	Count(ctx context.Context) (int, error)
}
