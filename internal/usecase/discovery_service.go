package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/platform/resilience"
)

const maxDiscoveryWorkers = 8

// DataSource yields normalised entities for one discovery target at a time.
// Implementations return ErrSourceExhausted when no candidate produced data.
type DataSource interface {
	Name() string
	Leagues(ctx context.Context) ([]league.League, error)
	SeasonMatches(ctx context.Context, l league.League) (normalize.MatchBatch, error)
	MatchBoxscore(ctx context.Context, m match.Match) ([]boxscore.Row, error)
}

// ObservableSource is a DataSource that can report its HTTP attempts to a
// crawl session.
type ObservableSource interface {
	DataSource
	Observe(rec *crawl.Recorder) DataSource
}

type TeamMatcher interface {
	IsTracked(name string) bool
}

type DiscoveryConfig struct {
	Concurrency int

	// CircuitBreaker trips after consecutive remote failures so later
	// targets go straight to the fallback source.
	CircuitBreaker resilience.CircuitBreakerConfig
}

type DiscoveryScope struct {
	// MaxLeagues caps leagues processed per run; 0 means no cap.
	MaxLeagues int
	// MaxMatchesPerLeague caps tracked-club matches considered for boxscores.
	MaxMatchesPerLeague int
	// LeagueIDs restricts discovery to the given liga ids when set.
	LeagueIDs []string
}

type DiscoveryResult struct {
	Leagues   []league.League `json:"-"`
	Seasons   []season.Season `json:"-"`
	Teams     []team.Team     `json:"-"`
	Matches   []match.Match   `json:"-"`
	Boxscores []boxscore.Row  `json:"-"`
	Targets   []TargetOutcome `json:"targets"`
}

// TargetOutcome records which source satisfied one discovery target.
type TargetOutcome struct {
	Kind     string            `json:"kind"`
	Key      string            `json:"key"`
	Source   provenance.Source `json:"source"`
	Records  int               `json:"records"`
	Fallback bool              `json:"fallback"`

	// CircuitOpen marks a fallback taken without asking the remote source.
	CircuitOpen bool `json:"circuit_open,omitempty"`
}

// FallbackCount reports how many targets were served by the fallback source.
func (r DiscoveryResult) FallbackCount() int {
	n := 0
	for _, t := range r.Targets {
		if t.Fallback {
			n++
		}
	}
	return n
}

type DiscoveryService struct {
	remote   DataSource
	fallback DataSource
	matcher  TeamMatcher
	workers  int
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
}

func NewDiscoveryService(remote, fallback DataSource, matcher TeamMatcher, cfg DiscoveryConfig, logger *logging.Logger) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}
	if workers > maxDiscoveryWorkers {
		workers = maxDiscoveryWorkers
	}
	return &DiscoveryService{
		remote:   remote,
		fallback: fallback,
		matcher:  matcher,
		workers:  workers,
		breaker:  resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		logger:   logger.Named("discovery"),
	}
}

type leagueDiscovery struct {
	teams     []team.Team
	matches   []match.Match
	boxscores []boxscore.Row
	targets   []TargetOutcome
}

// Discover walks leagues, then each league's season matches, then boxscores
// of finished tracked-club matches. Every target falls back independently.
// Only context cancellation is returned as an error.
func (s *DiscoveryService) Discover(ctx context.Context, scope DiscoveryScope, rec *crawl.Recorder) (DiscoveryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Discover",
		attribute.Int("scope.max_leagues", scope.MaxLeagues),
		attribute.Int("scope.max_matches", scope.MaxMatchesPerLeague),
	)
	defer span.End()

	if s.remote == nil || s.fallback == nil {
		return DiscoveryResult{}, fmt.Errorf("%w: discovery sources are not configured", ErrDependencyUnavailable)
	}

	remote := s.remote
	if observable, ok := remote.(ObservableSource); ok && rec != nil {
		remote = observable.Observe(rec)
	}

	var result DiscoveryResult
	leagues, outcome, err := discoverTarget(ctx, s, "leagues", "all", func(src DataSource) ([]league.League, error) {
		return src.Leagues(ctx)
	}, remote)
	if err != nil {
		return DiscoveryResult{}, err
	}
	result.Targets = append(result.Targets, outcome)

	leagues = selectLeagues(normalize.DedupeSynthetic(leagues), scope)
	if rec != nil {
		discovered := 0
		for _, l := range leagues {
			if !l.Provenance.IsMock() {
				discovered++
			}
		}
		rec.SetLeaguesDiscovered(discovered)
	}
	result.Leagues = leagues
	result.Seasons = normalize.Seasons(leagues)

	perLeague, err := s.discoverLeagues(ctx, remote, leagues, scope)
	if err != nil {
		return DiscoveryResult{}, err
	}

	seenTeams := make(map[string]struct{})
	for _, d := range perLeague {
		for _, t := range d.teams {
			if _, ok := seenTeams[t.ID]; ok {
				continue
			}
			seenTeams[t.ID] = struct{}{}
			result.Teams = append(result.Teams, t)
		}
		result.Matches = append(result.Matches, d.matches...)
		result.Boxscores = append(result.Boxscores, d.boxscores...)
		result.Targets = append(result.Targets, d.targets...)
	}

	s.logger.InfoContext(ctx, "discovery finished",
		"leagues", len(result.Leagues),
		"matches", len(result.Matches),
		"boxscore_rows", len(result.Boxscores),
		"fallback_targets", result.FallbackCount(),
	)
	return result, nil
}

// discoverLeagues fans out across leagues on a bounded pool. Results keep
// the league order.
func (s *DiscoveryService) discoverLeagues(ctx context.Context, remote DataSource, leagues []league.League, scope DiscoveryScope) ([]leagueDiscovery, error) {
	out := make([]leagueDiscovery, len(leagues))
	if len(leagues) == 0 {
		return out, nil
	}

	workers := s.workers
	if workers > len(leagues) {
		workers = len(leagues)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, l := range leagues {
		i, l := i, l
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			d, err := s.discoverLeague(ctx, remote, l, scope)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out[i] = d
		}); err != nil {
			wg.Done()
			return nil, fmt.Errorf("submit league task to worker pool: %w", err)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (s *DiscoveryService) discoverLeague(ctx context.Context, remote DataSource, l league.League, scope DiscoveryScope) (leagueDiscovery, error) {
	var d leagueDiscovery

	batch, outcome, err := discoverTarget(ctx, s, "season_matches", l.Key().String(), func(src DataSource) (normalize.MatchBatch, error) {
		return src.SeasonMatches(ctx, l)
	}, remote)
	if err != nil {
		return d, err
	}
	d.targets = append(d.targets, outcome)
	d.teams = batch.Teams
	d.matches = batch.Matches

	names := make(map[string]string, len(batch.Teams))
	for _, t := range batch.Teams {
		names[t.ID] = t.Name
	}

	tracked := make([]match.Match, 0, len(batch.Matches))
	for _, m := range batch.Matches {
		if s.isTrackedMatch(m, names) {
			tracked = append(tracked, m)
		}
	}
	if scope.MaxMatchesPerLeague > 0 && len(tracked) > scope.MaxMatchesPerLeague {
		tracked = tracked[:scope.MaxMatchesPerLeague]
	}
	s.logger.DebugContext(ctx, "season matches discovered",
		"league_id", l.LigaID,
		"season_id", l.SeasonID,
		"matches", len(batch.Matches),
		"tracked", len(tracked),
	)

	for _, m := range tracked {
		if !m.IsFinished() {
			continue
		}
		m := m
		rows, outcome, err := discoverTarget(ctx, s, "boxscore", m.ID, func(src DataSource) ([]boxscore.Row, error) {
			return src.MatchBoxscore(ctx, m)
		}, remote)
		if err != nil {
			return d, err
		}
		d.targets = append(d.targets, outcome)
		d.boxscores = append(d.boxscores, rows...)
	}
	return d, nil
}

// isTrackedMatch consults team names when the schedule carried them and
// falls back to the raw team ids otherwise.
func (s *DiscoveryService) isTrackedMatch(m match.Match, names map[string]string) bool {
	if s.matcher == nil {
		return true
	}
	for _, teamID := range []string{m.HomeTeamID, m.GuestTeamID} {
		label := teamID
		if name, ok := names[teamID]; ok && name != "" {
			label = name
		}
		if s.matcher.IsTracked(label) {
			return true
		}
	}
	return false
}

// discoverTarget runs one target against the remote source and switches to
// the fallback when the remote fails for any reason other than cancellation.
// While the breaker is open the remote is skipped entirely.
func discoverTarget[T any](
	ctx context.Context,
	s *DiscoveryService,
	kind, key string,
	run func(src DataSource) (T, error),
	remote DataSource,
) (T, TargetOutcome, error) {
	if err := s.breaker.Allow(); err != nil {
		s.logger.DebugContext(ctx, "remote source circuit open, using fallback", "kind", kind, "key", key)
		return runFallback(ctx, s, kind, key, run, true)
	}

	started := time.Now()
	value, err := run(remote)
	if err == nil {
		s.breaker.RecordSuccess()
		return value, TargetOutcome{Kind: kind, Key: key, Source: provenance.SourceREST, Records: countOf(value)}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.breaker.Release()
		var zero T
		return zero, TargetOutcome{}, fmt.Errorf("discover %s %s: %w", kind, key, ctxErr)
	}
	s.breaker.RecordFailure()

	level := s.logger.WarnContext
	if !errors.Is(err, ErrSourceExhausted) {
		level = s.logger.ErrorContext
	}
	level(ctx, "remote source failed, using fallback",
		"kind", kind,
		"key", key,
		"source", remote.Name(),
		"elapsed_ms", time.Since(started).Milliseconds(),
		"circuit", string(s.breaker.State()),
		"error", err,
	)
	return runFallback(ctx, s, kind, key, run, false)
}

func runFallback[T any](ctx context.Context, s *DiscoveryService, kind, key string, run func(src DataSource) (T, error), circuitOpen bool) (T, TargetOutcome, error) {
	value, err := run(s.fallback)
	if err != nil {
		var zero T
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, TargetOutcome{}, fmt.Errorf("discover %s %s: %w", kind, key, ctxErr)
		}
		return zero, TargetOutcome{}, fmt.Errorf("fallback %s %s: %w", kind, key, err)
	}
	return value, TargetOutcome{
		Kind:        kind,
		Key:         key,
		Source:      provenance.SourceMock,
		Records:     countOf(value),
		Fallback:    true,
		CircuitOpen: circuitOpen,
	}, nil
}

func countOf(v any) int {
	switch value := v.(type) {
	case []league.League:
		return len(value)
	case normalize.MatchBatch:
		return len(value.Matches)
	case []boxscore.Row:
		return len(value)
	default:
		return 0
	}
}

func selectLeagues(leagues []league.League, scope DiscoveryScope) []league.League {
	if len(scope.LeagueIDs) > 0 {
		allowed := make(map[string]struct{}, len(scope.LeagueIDs))
		for _, ligaID := range scope.LeagueIDs {
			allowed[ligaID] = struct{}{}
		}
		filtered := leagues[:0:0]
		for _, l := range leagues {
			if _, ok := allowed[l.LigaID]; ok {
				filtered = append(filtered, l)
			}
		}
		leagues = filtered
	}
	if scope.MaxLeagues > 0 && len(leagues) > scope.MaxLeagues {
		leagues = leagues[:scope.MaxLeagues]
	}
	return leagues
}
