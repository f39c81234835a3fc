package league

import (
	"context"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
)

// Repository describes league persistence needs from use cases.
// Create returns store.ErrConflict when the key already exists.
type Repository interface {
	FindByKey(ctx context.Context, key Key) (League, bool, error)
	// FindSynthetic looks up a synthetic league by its dedupe identity.
	FindSynthetic(ctx context.Context, name, seasonID string, source provenance.Source) (League, bool, error)
	Create(ctx context.Context, item League) error
	Count(ctx context.Context) (int, error)
}
