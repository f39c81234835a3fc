package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/domain/teammatch"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/platform/resilience"
)

func newDiscovery(remote, fallback DataSource) *DiscoveryService {
	return NewDiscoveryService(remote, fallback, teammatch.Default(), DiscoveryConfig{Concurrency: 4}, logging.NewNop())
}

func TestDiscoveryService_ExhaustedRemoteFallsBackToMockData(t *testing.T) {
	t.Parallel()

	remote := &fakeSource{name: "remote"}
	svc := newDiscovery(remote, mockFallback())

	result, err := svc.Discover(context.Background(), DiscoveryScope{MaxLeagues: 2, MaxMatchesPerLeague: 3}, nil)
	require.NoError(t, err)

	require.NotEmpty(t, result.Leagues)
	require.NotEmpty(t, result.Matches)
	require.NotEmpty(t, result.Boxscores)

	v := validator.New()
	for _, l := range result.Leagues {
		assert.Equal(t, provenance.SourceMock, l.Provenance.Source)
		assert.NoError(t, v.Struct(l))
	}
	for _, m := range result.Matches {
		assert.Equal(t, provenance.SourceMock, m.Provenance.Source)
		assert.NoError(t, v.Struct(m))
	}
	for _, row := range result.Boxscores {
		assert.Equal(t, provenance.SourceMock, row.Provenance.Source)
		assert.NoError(t, v.Struct(row))
	}
	assert.Equal(t, len(result.Targets), result.FallbackCount())
	require.Len(t, result.Seasons, 1)
	assert.Equal(t, 2023, result.Seasons[0].Year)
}

func TestDiscoveryService_TrackedFinishedMatchesOnly(t *testing.T) {
	t.Parallel()

	l := league.League{LigaID: "47955", SeasonID: "2023-24", Name: "Bezirksliga", Provenance: restProv()}
	mk := func(matchID, home, guest string, status match.Status) match.Match {
		return match.Match{ID: matchID, SeasonID: l.SeasonID, LigaID: l.LigaID, Date: testNow, HomeTeamID: home, GuestTeamID: guest, Status: status, Provenance: restProv()}
	}
	remote := &fakeSource{
		name: "remote",
		leagues: func(context.Context) ([]league.League, error) {
			return []league.League{l}, nil
		},
		matches: func(context.Context, league.League) (normalize.MatchBatch, error) {
			return normalize.MatchBatch{
				Teams: []team.Team{
					{ID: "t1", Name: "BG Litzendorf 2"},
					{ID: "t2", Name: "TSV Coburg"},
					{ID: "t3", Name: "TSG Bayreuth"},
				},
				Matches: []match.Match{
					mk("m1", "t1", "t2", match.StatusFinished),
					mk("m2", "t3", "t2", match.StatusFinished),
					mk("m3", "t2", "t1", match.StatusScheduled),
					mk("m4", "t1", "t3", match.StatusFinished),
					mk("m5", "t3", "t1", match.StatusFinished),
				},
			}, nil
		},
		boxscore: func(_ context.Context, m match.Match) ([]boxscore.Row, error) {
			if m.ID == "m4" {
				return nil, errors.New("HTTP 500")
			}
			return []boxscore.Row{{MatchID: m.ID, TeamID: "t1", PlayerID: "p1", PlayerName: "John Doe", Pts: 8, Provenance: restProv()}}, nil
		},
	}
	svc := newDiscovery(remote, mockFallback())

	result, err := svc.Discover(context.Background(), DiscoveryScope{MaxMatchesPerLeague: 3}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Matches, 5)
	assert.Len(t, result.Teams, 3)
	assert.Equal(t, []string{"leagues", "matches:47955", "boxscore:m1", "boxscore:m4"}, remote.Calls())

	require.Len(t, result.Boxscores, 2)
	assert.Equal(t, "m1", result.Boxscores[0].MatchID)
	assert.False(t, result.Boxscores[0].Provenance.IsMock())
	assert.Equal(t, "m4", result.Boxscores[1].MatchID)
	assert.True(t, result.Boxscores[1].Provenance.IsMock())
	assert.Equal(t, 1, result.FallbackCount())
}

func TestDiscoveryService_ScopeFiltersAndCapsLeagues(t *testing.T) {
	t.Parallel()

	remote := &fakeSource{
		name: "remote",
		leagues: func(context.Context) ([]league.League, error) {
			return []league.League{
				{LigaID: "a", SeasonID: "2023-24", Name: "A", Provenance: restProv()},
				{LigaID: "b", SeasonID: "2023-24", Name: "B", Provenance: restProv()},
				{LigaID: "c", SeasonID: "2023-24", Name: "C", Provenance: restProv()},
				{LigaID: "synthetic-1", SeasonID: "2023-24", Name: "Unknown League", Synthetic: true, Provenance: restProv()},
				{LigaID: "synthetic-2", SeasonID: "2023-24", Name: "unknown league", Synthetic: true, Provenance: restProv()},
			}, nil
		},
		matches: func(context.Context, league.League) (normalize.MatchBatch, error) {
			return normalize.MatchBatch{}, nil
		},
	}
	svc := newDiscovery(remote, mockFallback())

	rec := crawl.NewRecorder("session-1", "test", func() time.Time { return testNow })
	result, err := svc.Discover(context.Background(), DiscoveryScope{LeagueIDs: []string{"c", "a"}}, rec)
	require.NoError(t, err)
	require.Len(t, result.Leagues, 2)
	assert.Equal(t, "a", result.Leagues[0].LigaID)
	assert.Equal(t, "c", result.Leagues[1].LigaID)
	assert.Equal(t, 2, rec.Session().LeaguesDiscovered)

	result, err = svc.Discover(context.Background(), DiscoveryScope{MaxLeagues: 4}, nil)
	require.NoError(t, err)
	require.Len(t, result.Leagues, 4)
	assert.Equal(t, "synthetic-1", result.Leagues[3].LigaID)
}

func TestDiscoveryService_CancelledContextIsReturned(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	remote := &fakeSource{
		name: "remote",
		leagues: func(ctx context.Context) ([]league.League, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	svc := newDiscovery(remote, mockFallback())

	_, err := svc.Discover(ctx, DiscoveryScope{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDiscoveryService_RequiresSources(t *testing.T) {
	t.Parallel()

	svc := NewDiscoveryService(nil, nil, nil, DiscoveryConfig{}, nil)
	_, err := svc.Discover(context.Background(), DiscoveryScope{}, nil)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestDiscoveryService_OpenBreakerSkipsRemote(t *testing.T) {
	t.Parallel()

	remote := &fakeSource{name: "remote"}
	svc := NewDiscoveryService(remote, mockFallback(), teammatch.Default(), DiscoveryConfig{
		Concurrency: 1,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Hour,
		},
	}, logging.NewNop())

	result, err := svc.Discover(context.Background(), DiscoveryScope{MaxMatchesPerLeague: 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"leagues"}, remote.Calls())
	require.Len(t, result.Targets, 3)
	assert.False(t, result.Targets[0].CircuitOpen)
	for _, target := range result.Targets {
		assert.True(t, target.Fallback)
		assert.Equal(t, provenance.SourceMock, target.Source)
	}
	assert.True(t, result.Targets[1].CircuitOpen)
	assert.True(t, result.Targets[2].CircuitOpen)
	assert.NotEmpty(t, result.Boxscores)
}

func TestDiscoveryService_WithoutBreakerEveryTargetAsksRemote(t *testing.T) {
	t.Parallel()

	remote := &fakeSource{name: "remote"}
	svc := newDiscovery(remote, mockFallback())

	result, err := svc.Discover(context.Background(), DiscoveryScope{MaxMatchesPerLeague: 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"leagues",
		"matches:bol-oberfranken",
		"boxscore:mock-bol-oberfranken-match-1",
	}, remote.Calls())
	for _, target := range result.Targets {
		assert.False(t, target.CircuitOpen)
	}
}

func TestDiscoveryService_BreakerClosesOnRemoteSuccess(t *testing.T) {
	t.Parallel()

	l := league.League{LigaID: "47955", SeasonID: "2023-24", Name: "Bezirksliga", Provenance: restProv()}
	remote := &fakeSource{
		name: "remote",
		leagues: func(context.Context) ([]league.League, error) {
			return []league.League{l}, nil
		},
		matches: func(context.Context, league.League) (normalize.MatchBatch, error) {
			return normalize.MatchBatch{}, nil
		},
	}
	svc := NewDiscoveryService(remote, mockFallback(), teammatch.Default(), DiscoveryConfig{
		Concurrency:    1,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, logging.NewNop())

	result, err := svc.Discover(context.Background(), DiscoveryScope{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"leagues", "matches:47955"}, remote.Calls())
	assert.Zero(t, result.FallbackCount())
	assert.Equal(t, resilience.CircuitStateClosed, svc.breaker.State())
}
