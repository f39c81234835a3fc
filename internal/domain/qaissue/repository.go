package qaissue

import "context"

// Repository persists QA issues. Save inserts or refreshes an issue by id
// but never changes the status of an issue that is confirmed or ignored.
type Repository interface {
	Save(ctx context.Context, issue Issue) error
	FindByID(ctx context.Context, id string) (Issue, bool, error)
	List(ctx context.Context, limit int) ([]Issue, error)
	Count(ctx context.Context) (int, error)
}
