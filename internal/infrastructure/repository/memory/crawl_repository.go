package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
)

type CrawlRepository struct {
	mu       sync.RWMutex
	sessions map[string]crawl.Session
	logs     []crawl.LogEntry
	logIDs   map[string]struct{}
}

func NewCrawlRepository() *CrawlRepository {
	return &CrawlRepository{
		sessions: make(map[string]crawl.Session),
		logIDs:   make(map[string]struct{}),
	}
}

func (r *CrawlRepository) SaveSession(_ context.Context, session crawl.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
	return nil
}

// AppendLogs ignores entries whose id was already stored.
func (r *CrawlRepository) AppendLogs(_ context.Context, logs []crawl.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range logs {
		if _, ok := r.logIDs[entry.ID]; ok {
			continue
		}
		r.logIDs[entry.ID] = struct{}{}
		r.logs = append(r.logs, entry)
	}
	return nil
}

func (r *CrawlRepository) ListSessions(_ context.Context, limit int) ([]crawl.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]crawl.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *CrawlRepository) ListLogs(_ context.Context, limit int) ([]crawl.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]crawl.LogEntry(nil), r.logs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
