package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/infrastructure/repository/memory"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

func newMemoryPipeline(st *memory.Store, remote DataSource, cfg PipelineConfig) *PipelineService {
	svc := NewPipelineService(
		newDiscovery(remote, mockFallback()),
		newMemoryIngest(st),
		newMemoryQA(st),
		st.Crawl,
		cfg,
		logging.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	n := 0
	svc.sessionID = func() string {
		n++
		return "session-" + string(rune('0'+n))
	}
	return svc
}

func TestPipelineService_RunWithExhaustedRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()
	svc := newMemoryPipeline(st, &fakeSource{name: "remote"}, PipelineConfig{})

	report, err := svc.Run(ctx, DiscoveryScope{MaxLeagues: 1, MaxMatchesPerLeague: 5})
	require.NoError(t, err)

	assert.Equal(t, "session-1", report.Session.ID)
	assert.Equal(t, crawl.SessionCompleted, report.Session.Status)
	assert.Equal(t, len(report.Targets), report.FallbackTargets)
	assert.Positive(t, report.FallbackTargets)
	assert.Positive(t, report.Run.Created)
	assert.Zero(t, report.Run.Failed)
	assert.Empty(t, report.Run.Issues, "mock data is excluded from QA")
	assert.Equal(t, []string{"2023-24"}, report.Run.Ingest.Seasons)

	sessions, err := st.Crawl.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "session-1", sessions[0].ID)

	stat, found, err := st.SeasonStats.FindByKey(ctx, seasonstat.Key{PlayerID: "mock-player-1", SeasonID: "2023-24"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, provenance.SourceMock, stat.Provenance.Source)
	assert.Equal(t, 12, stat.Points)

	again, err := svc.Run(ctx, DiscoveryScope{MaxLeagues: 1, MaxMatchesPerLeague: 5})
	require.NoError(t, err)
	assert.Equal(t, "session-2", again.Session.ID)
	assert.Zero(t, again.Run.Created, "second run is idempotent")
	assert.Positive(t, again.Run.Skipped)
}

func TestPipelineService_SkipQA(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()
	svc := newMemoryPipeline(st, &fakeSource{name: "remote"}, PipelineConfig{SkipQA: true})

	report, err := svc.Run(ctx, DiscoveryScope{})
	require.NoError(t, err)
	assert.Empty(t, report.Run.Issues)
	assert.Empty(t, report.TelemetryIssues)

	count, err := st.Issues.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipelineService_CancelledRunStillPersistsSession(t *testing.T) {
	t.Parallel()

	st := memory.NewStore()
	svc := newMemoryPipeline(st, &fakeSource{name: "remote"}, PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, session, err := svc.RunDiscovery(ctx, DiscoveryScope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, crawl.SessionFailed, session.Status)

	sessions, err := st.Crawl.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestPipelineService_RequiresServices(t *testing.T) {
	t.Parallel()

	svc := NewPipelineService(nil, nil, nil, nil, PipelineConfig{}, nil)
	_, _, err := svc.RunDiscovery(context.Background(), DiscoveryScope{})
	assert.ErrorIs(t, err, ErrDependencyUnavailable)

	_, err = svc.RunIngestAndQA(context.Background(), Batch{})
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}
