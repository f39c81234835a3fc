package crawl

import "context"

// Repository persists telemetry. List methods return newest first.
type Repository interface {
	SaveSession(ctx context.Context, session Session) error
	AppendLogs(ctx context.Context, logs []LogEntry) error
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	ListLogs(ctx context.Context, limit int) ([]LogEntry, error)
}
