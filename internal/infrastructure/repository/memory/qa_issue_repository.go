package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
)

type QAIssueRepository struct {
	mu    sync.RWMutex
	items map[string]qaissue.Issue
}

func NewQAIssueRepository() *QAIssueRepository {
	return &QAIssueRepository{items: make(map[string]qaissue.Issue)}
}

// Save inserts or overwrites by id. An operator decision already recorded
// on the stored issue is kept.
func (r *QAIssueRepository) Save(_ context.Context, issue qaissue.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[issue.ID]; ok && existing.Status.IsTerminal() {
		issue.Status = existing.Status
	}
	if issue.Status == "" {
		issue.Status = qaissue.StatusOpen
	}
	r.items[issue.ID] = issue
	return nil
}

func (r *QAIssueRepository) FindByID(_ context.Context, id string) (qaissue.Issue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.items[id]
	return issue, ok, nil
}

// List returns issues newest first; limit <= 0 returns all.
func (r *QAIssueRepository) List(_ context.Context, limit int) ([]qaissue.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]qaissue.Issue, 0, len(r.items))
	for _, issue := range r.items {
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *QAIssueRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}
