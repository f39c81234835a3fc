package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

func TestLeagueRepository_ConcurrentCreateInsertsOnce(t *testing.T) {
	t.Parallel()

	repo := NewLeagueRepository(nil)
	item := league.League{LigaID: "47955", SeasonID: "2023-24", Name: "Bezirksliga"}

	var created, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), item)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, store.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(15), conflicts.Load())
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLeagueRepository_FindSynthetic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewLeagueRepository(nil)
	require.NoError(t, repo.Create(ctx, league.League{
		LigaID: "synthetic-league-1", SeasonID: "2023-24", Name: "Kreisliga Nord", Synthetic: true,
		Provenance: provenance.Provenance{Source: provenance.SourceMock},
	}))

	found, ok, err := repo.FindSynthetic(ctx, " kreisliga nord ", "2023-24", provenance.SourceMock)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "synthetic-league-1", found.LigaID)

	_, ok, err = repo.FindSynthetic(ctx, "Kreisliga Nord", "2023-24", provenance.SourceREST)
	require.NoError(t, err)
	assert.False(t, ok)

	err = repo.Create(ctx, league.League{
		LigaID: "synthetic-league-2", SeasonID: "2023-24", Name: "Kreisliga Nord", Synthetic: true,
		Provenance: provenance.Provenance{Source: provenance.SourceMock},
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestMatchRepository_StatusNeverRegresses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMatchRepository()
	require.NoError(t, repo.Create(ctx, match.Match{ID: "m1", SeasonID: "2023-24", Status: match.StatusScheduled}))

	changed, err := repo.UpdateStatus(ctx, "m1", match.StatusFinished, "70:60")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateStatus(ctx, "m1", match.StatusScheduled, "")
	require.NoError(t, err)
	assert.False(t, changed)

	got, ok, err := repo.FindByID(ctx, "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, match.StatusFinished, got.Status)
	assert.Equal(t, "70:60", got.Result)

	_, err = repo.UpdateStatus(ctx, "missing", match.StatusFinished, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBoxscoreRepository_NaturalKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewBoxscoreRepository()
	row := boxscore.Row{MatchID: "m1", TeamID: "t1", PlayerName: "Max Mustermann", Pts: 10}
	require.NoError(t, repo.Create(ctx, row))

	dup := row
	dup.PlayerName = "MAX MUSTERMANN"
	assert.ErrorIs(t, repo.Create(ctx, dup), store.ErrConflict)

	rows, err := repo.ListByMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestQAIssueRepository_KeepsOperatorDecision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewQAIssueRepository()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, qaissue.Issue{ID: "outlier-x", Type: qaissue.TypeOutlier, Status: qaissue.StatusIgnored, CreatedAt: at}))
	require.NoError(t, repo.Save(ctx, qaissue.Issue{ID: "outlier-x", Type: qaissue.TypeOutlier, Description: "again", CreatedAt: at}))
	require.NoError(t, repo.Save(ctx, qaissue.Issue{ID: "outlier-y", Type: qaissue.TypeOutlier, CreatedAt: at.Add(time.Hour)}))

	got, ok, err := repo.FindByID(ctx, "outlier-x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, qaissue.StatusIgnored, got.Status)
	assert.Equal(t, "again", got.Description)

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "outlier-y", list[0].ID)
	assert.Equal(t, qaissue.StatusOpen, list[0].Status)
}

func TestSeasonStatRepository_ReplaceDerivedOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSeasonStatRepository()
	derived := seasonstat.Stat{PlayerID: "p1", SeasonID: "2023-24", Points: 10, Games: 1, Derived: true}
	explicit := seasonstat.Stat{PlayerID: "p2", SeasonID: "2023-24", Points: 100, Games: 10}
	require.NoError(t, repo.Create(ctx, derived))
	require.NoError(t, repo.Create(ctx, explicit))

	derived.Points = 24
	derived.Games = 2
	replaced, err := repo.ReplaceDerived(ctx, derived)
	require.NoError(t, err)
	assert.True(t, replaced)

	explicit.Points = 8
	replaced, err = repo.ReplaceDerived(ctx, explicit)
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = repo.ReplaceDerived(ctx, seasonstat.Stat{PlayerID: "p3", SeasonID: "2023-24", Derived: true})
	require.NoError(t, err)
	assert.False(t, replaced, "replace never inserts")

	got, _, err := repo.FindByKey(ctx, derived.Key())
	require.NoError(t, err)
	assert.Equal(t, 24, got.Points)
	got, _, err = repo.FindByKey(ctx, explicit.Key())
	require.NoError(t, err)
	assert.Equal(t, 100, got.Points)
}

func TestCrawlRepository_NewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCrawlRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveSession(ctx, crawl.Session{ID: "s1", StartedAt: base}))
	require.NoError(t, repo.SaveSession(ctx, crawl.Session{ID: "s2", StartedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.AppendLogs(ctx, []crawl.LogEntry{
		{ID: "s1-00001", SessionID: "s1", Timestamp: base},
		{ID: "s2-00001", SessionID: "s2", Timestamp: base.Add(time.Hour)},
	}))
	require.NoError(t, repo.AppendLogs(ctx, []crawl.LogEntry{{ID: "s1-00001", SessionID: "s1", Timestamp: base}}))

	sessions, err := repo.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)

	logs, err := repo.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "s2-00001", logs[0].ID)
}
