package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/infrastructure/repository/memory"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) NewID(kind string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("synthetic-%s-%d", kind, g.n), nil
}

// fakeSource is a DataSource driven by per-target functions. A nil
// function reports ErrSourceExhausted.
type fakeSource struct {
	name     string
	leagues  func(ctx context.Context) ([]league.League, error)
	matches  func(ctx context.Context, l league.League) (normalize.MatchBatch, error)
	boxscore func(ctx context.Context, m match.Match) ([]boxscore.Row, error)

	mu    sync.Mutex
	calls []string
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *fakeSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSource) Leagues(ctx context.Context) ([]league.League, error) {
	s.record("leagues")
	if s.leagues == nil {
		return nil, fmt.Errorf("%w: leagues", ErrSourceExhausted)
	}
	return s.leagues(ctx)
}

func (s *fakeSource) SeasonMatches(ctx context.Context, l league.League) (normalize.MatchBatch, error) {
	s.record("matches:" + l.LigaID)
	if s.matches == nil {
		return normalize.MatchBatch{}, fmt.Errorf("%w: matches", ErrSourceExhausted)
	}
	return s.matches(ctx, l)
}

func (s *fakeSource) MatchBoxscore(ctx context.Context, m match.Match) ([]boxscore.Row, error) {
	s.record("boxscore:" + m.ID)
	if s.boxscore == nil {
		return nil, fmt.Errorf("%w: boxscore", ErrSourceExhausted)
	}
	return s.boxscore(ctx, m)
}

func mockProv() provenance.Provenance { return provenance.New(provenance.SourceMock, testNow) }
func restProv() provenance.Provenance { return provenance.New(provenance.SourceREST, testNow) }

// mockFallback mirrors the shape of the production fallback: one league,
// tracked-club matches, and a boxscore for any finished match.
func mockFallback() *fakeSource {
	return &fakeSource{
		name: "mock-data",
		leagues: func(context.Context) ([]league.League, error) {
			return []league.League{{LigaID: "bol-oberfranken", SeasonID: "2023-24", Name: "Bezirksoberliga Oberfranken", Provenance: mockProv()}}, nil
		},
		matches: func(_ context.Context, l league.League) (normalize.MatchBatch, error) {
			return normalize.MatchBatch{
				Teams: []team.Team{{ID: "team-bgl1", Name: "BG Litzendorf 1"}, {ID: "team-bamberg", Name: "BG Bamberg"}},
				Matches: []match.Match{{
					ID: "mock-" + l.LigaID + "-match-1", SeasonID: l.SeasonID, LigaID: l.LigaID,
					Date: testNow, HomeTeamID: "team-bgl1", GuestTeamID: "team-bamberg",
					Status: match.StatusFinished, Result: "70:60", Provenance: mockProv(),
				}},
			}, nil
		},
		boxscore: func(_ context.Context, m match.Match) ([]boxscore.Row, error) {
			return []boxscore.Row{{
				MatchID: m.ID, TeamID: m.HomeTeamID, PlayerID: "mock-player-1", PlayerName: "Max Mustermann",
				Pts: 12, ThreePm: 1, ThreePa: 3, Ftm: 3, Fta: 4, Provenance: mockProv(),
			}}, nil
		},
	}
}

func newMemoryIngest(st *memory.Store) *IngestService {
	svc := NewIngestService(IngestRepositories{
		Leagues:     st.Leagues,
		Seasons:     st.Seasons,
		Teams:       st.Teams,
		Players:     st.Players,
		Matches:     st.Matches,
		Boxscores:   st.Boxscores,
		SeasonStats: st.SeasonStats,
	}, &sequenceIDs{}, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func newMemoryQA(st *memory.Store) *QAService {
	svc := NewQAService(QARepositories{
		Matches:     st.Matches,
		Boxscores:   st.Boxscores,
		SeasonStats: st.SeasonStats,
		Issues:      st.Issues,
		Crawl:       st.Crawl,
	}, QAConfig{}, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}
