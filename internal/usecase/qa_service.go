package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/qa"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

const (
	defaultTelemetrySessions = 50
	defaultTelemetryLogs     = 2000
	defaultQAConcurrency     = 4
)

type QAConfig struct {
	OutlierThreshold float64
	SeasonTolerance  float64
	Telemetry        qa.Thresholds
	// SessionWindow and LogWindow bound how much telemetry one analysis reads.
	SessionWindow int
	LogWindow     int
	Concurrency   int
}

type QARepositories struct {
	Matches     match.Repository
	Boxscores   boxscore.Repository
	SeasonStats seasonstat.Repository
	Issues      qaissue.Repository
	Crawl       crawl.Repository
}

// QAService is the only writer of QA issues.
type QAService struct {
	repos  QARepositories
	cfg    QAConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewQAService(repos QARepositories, cfg QAConfig, logger *logging.Logger) *QAService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.OutlierThreshold <= 0 {
		cfg.OutlierThreshold = qa.DefaultOutlierThreshold
	}
	if cfg.SeasonTolerance <= 0 {
		cfg.SeasonTolerance = qa.DefaultSeasonTolerance
	}
	if cfg.Telemetry.MaxIssues == 0 {
		cfg.Telemetry = qa.DefaultThresholds()
	}
	if cfg.SessionWindow <= 0 {
		cfg.SessionWindow = defaultTelemetrySessions
	}
	if cfg.LogWindow <= 0 {
		cfg.LogWindow = defaultTelemetryLogs
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultQAConcurrency
	}
	return &QAService{
		repos:  repos,
		cfg:    cfg,
		logger: logger.Named("qa"),
		now:    time.Now,
	}
}

// seasonData is the non-mock slice of one season used for statistics.
type seasonData struct {
	stats   []seasonstat.Stat
	matches []match.Match
	rows    []boxscore.Row
}

// ValidateSeasons runs ValidateSeason for each season on a bounded pool.
// A failing season is logged and does not stop the others.
func (s *QAService) ValidateSeasons(ctx context.Context, seasonIDs []string) ([]qaissue.Issue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QAService.ValidateSeasons", attribute.Int("seasons", len(seasonIDs)))
	defer span.End()

	if len(seasonIDs) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[[]qaissue.Issue]().WithContext(ctx).WithMaxGoroutines(s.cfg.Concurrency)
	for _, seasonID := range seasonIDs {
		seasonID := seasonID
		p.Go(func(ctx context.Context) ([]qaissue.Issue, error) {
			issues, err := s.ValidateSeason(ctx, seasonID)
			if err != nil {
				s.logger.WarnContext(ctx, "season validation failed", "season_id", seasonID, "error", err)
			}
			return issues, err
		})
	}
	results, err := p.Wait()

	var out []qaissue.Issue
	for _, issues := range results {
		out = append(out, issues...)
	}
	if err != nil {
		return out, fmt.Errorf("validate seasons: %w", err)
	}
	return out, nil
}

// ValidateSeason checks one season's stored statistics and persists every
// finding. Mock-data records are excluded from all checks.
func (s *QAService) ValidateSeason(ctx context.Context, seasonID string) ([]qaissue.Issue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QAService.ValidateSeason", attribute.String("season_id", seasonID))
	defer span.End()

	if seasonID == "" {
		return nil, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if s.repos.Matches == nil || s.repos.Boxscores == nil || s.repos.SeasonStats == nil || s.repos.Issues == nil {
		return nil, fmt.Errorf("%w: qa repositories are not configured", ErrDependencyUnavailable)
	}

	data, err := s.loadSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	var issues []qaissue.Issue
	issues = append(issues, s.perGameOutliers(seasonID, data, at)...)
	issues = append(issues, s.boxscoreOutliers(seasonID, data, at)...)
	issues = append(issues, s.seasonTotalMismatches(seasonID, data, at)...)
	issues = append(issues, duplicateMatchIssues(seasonID, data, at)...)
	issues = append(issues, shootingIssues(seasonID, data, at)...)

	if err := s.save(ctx, issues); err != nil {
		return issues, err
	}
	s.logger.InfoContext(ctx, "season validated",
		"season_id", seasonID,
		"players", len(data.stats),
		"matches", len(data.matches),
		"boxscore_rows", len(data.rows),
		"issues", len(issues),
	)
	return issues, nil
}

func (s *QAService) loadSeason(ctx context.Context, seasonID string) (seasonData, error) {
	var data seasonData

	stats, err := s.repos.SeasonStats.ListBySeason(ctx, seasonID)
	if err != nil {
		return data, fmt.Errorf("list season stats: %w", err)
	}
	for _, stat := range stats {
		if !stat.Provenance.IsMock() {
			data.stats = append(data.stats, stat)
		}
	}

	matches, err := s.repos.Matches.ListBySeason(ctx, seasonID)
	if err != nil {
		return data, fmt.Errorf("list season matches: %w", err)
	}
	for _, m := range matches {
		if m.Provenance.IsMock() {
			continue
		}
		data.matches = append(data.matches, m)
		rows, err := s.repos.Boxscores.ListByMatch(ctx, m.ID)
		if err != nil {
			return data, fmt.Errorf("list boxscore rows for %s: %w", m.ID, err)
		}
		for _, row := range rows {
			if !row.Provenance.IsMock() {
				data.rows = append(data.rows, row)
			}
		}
	}
	return data, nil
}

func (s *QAService) perGameOutliers(seasonID string, data seasonData, at time.Time) []qaissue.Issue {
	var (
		values []float64
		played []seasonstat.Stat
	)
	for _, stat := range data.stats {
		if stat.Games == 0 {
			continue
		}
		ppg := qa.PerGame(stat.Points, stat.Games)
		values = append(values, ppg)
		played = append(played, stat)
	}
	mean, stdDev := qa.MeanStdDev(values)

	var out []qaissue.Issue
	for i, stat := range played {
		if !qa.IsOutlier(values[i], mean, stdDev, s.cfg.OutlierThreshold) {
			continue
		}
		out = append(out, newIssue(
			fmt.Sprintf("outlier-%s-%s", seasonID, stat.PlayerID),
			qaissue.TypeOutlier, seasonID, "", at,
			fmt.Sprintf("%s averages %.2f points per game (season mean %.2f, z-score %.2f)",
				displayName(stat.PlayerName, stat.PlayerID), values[i], mean, qa.ZScore(values[i], mean, stdDev)),
		))
	}
	return out
}

func (s *QAService) boxscoreOutliers(seasonID string, data seasonData, at time.Time) []qaissue.Issue {
	values := make([]float64, len(data.rows))
	for i, row := range data.rows {
		values[i] = float64(row.Pts)
	}
	mean, stdDev := qa.MeanStdDev(values)

	var out []qaissue.Issue
	for i, row := range data.rows {
		if !qa.IsOutlier(values[i], mean, stdDev, s.cfg.OutlierThreshold) {
			continue
		}
		out = append(out, newIssue(
			fmt.Sprintf("outlier-%s-%s", row.MatchID, row.Key().PlayerKey),
			qaissue.TypeOutlier, seasonID, row.MatchID, at,
			fmt.Sprintf("%s scored %d points in match %s (season mean %.2f, z-score %.2f)",
				displayName(row.PlayerName, row.PlayerID), row.Pts, row.MatchID, mean, qa.ZScore(values[i], mean, stdDev)),
		))
	}
	return out
}

// seasonTotalMismatches compares stored season points with the sum of the
// player's stored boxscore lines. Players without boxscore lines are skipped.
func (s *QAService) seasonTotalMismatches(seasonID string, data seasonData, at time.Time) []qaissue.Issue {
	sums := make(map[string]int)
	for _, row := range data.rows {
		if row.PlayerID != "" {
			sums[row.PlayerID] += row.Pts
		}
	}

	var out []qaissue.Issue
	for _, stat := range data.stats {
		sum, ok := sums[stat.PlayerID]
		if !ok {
			continue
		}
		if qa.ValidateSeasonTotals(float64(stat.Points), float64(sum), stat.Games, s.cfg.SeasonTolerance) {
			continue
		}
		out = append(out, newIssue(
			fmt.Sprintf("season-total-%s-%s", seasonID, stat.PlayerID),
			qaissue.TypeSeasonTotalMismatch, seasonID, "", at,
			fmt.Sprintf("%s season total %d differs from boxscore sum %d over %d games",
				displayName(stat.PlayerName, stat.PlayerID), stat.Points, sum, stat.Games),
		))
	}
	return out
}

func duplicateMatchIssues(seasonID string, data seasonData, at time.Time) []qaissue.Issue {
	var out []qaissue.Issue
	for _, pair := range qa.DuplicatePairs(data.matches) {
		a, b := pair[0], pair[1]
		out = append(out, newIssue(
			fmt.Sprintf("duplicate-match-%s-%s", a.ID, b.ID),
			qaissue.TypeDuplicateMatch, seasonID, b.ID, at,
			fmt.Sprintf("match %s duplicates %s (%s vs %s on %s, result %q)",
				b.ID, a.ID, a.HomeTeamID, a.GuestTeamID, a.Date.UTC().Format(time.RFC3339), a.Result),
		))
	}
	return out
}

// shootingIssues flags made shots exceeding attempts.
func shootingIssues(seasonID string, data seasonData, at time.Time) []qaissue.Issue {
	var out []qaissue.Issue
	for _, row := range data.rows {
		if row.ThreePm <= row.ThreePa && row.Ftm <= row.Fta {
			continue
		}
		out = append(out, newIssue(
			fmt.Sprintf("shooting-%s-%s", row.MatchID, row.Key().PlayerKey),
			qaissue.TypeShootingInconsistency, seasonID, row.MatchID, at,
			fmt.Sprintf("%s in match %s: 3PM %d/%d, FTM %d/%d",
				displayName(row.PlayerName, row.PlayerID), row.MatchID, row.ThreePm, row.ThreePa, row.Ftm, row.Fta),
		))
	}
	for _, stat := range data.stats {
		if stat.ThreePm <= stat.ThreePa && stat.Ftm <= stat.Fta {
			continue
		}
		out = append(out, newIssue(
			fmt.Sprintf("shooting-%s-%s", seasonID, stat.PlayerID),
			qaissue.TypeShootingInconsistency, seasonID, "", at,
			fmt.Sprintf("%s season totals: 3PM %d/%d, FTM %d/%d",
				displayName(stat.PlayerName, stat.PlayerID), stat.ThreePm, stat.ThreePa, stat.Ftm, stat.Fta),
		))
	}
	return out
}

// AnalyzeTelemetry reads recent crawl sessions and logs and persists the
// issues synthesized from them.
func (s *QAService) AnalyzeTelemetry(ctx context.Context) ([]qaissue.Issue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QAService.AnalyzeTelemetry")
	defer span.End()

	if s.repos.Crawl == nil || s.repos.Issues == nil {
		return nil, fmt.Errorf("%w: telemetry repositories are not configured", ErrDependencyUnavailable)
	}

	var (
		sessions             []crawl.Session
		logs                 []crawl.LogEntry
		sessionsErr, logsErr error
		wg                   conc.WaitGroup
	)
	wg.Go(func() {
		sessions, sessionsErr = s.repos.Crawl.ListSessions(ctx, s.cfg.SessionWindow)
	})
	wg.Go(func() {
		logs, logsErr = s.repos.Crawl.ListLogs(ctx, s.cfg.LogWindow)
	})
	wg.Wait()
	if sessionsErr != nil {
		return nil, fmt.Errorf("list crawl sessions: %w", sessionsErr)
	}
	if logsErr != nil {
		return nil, fmt.Errorf("list crawl logs: %w", logsErr)
	}

	issues := qa.SynthesizeTelemetryIssues(sessions, logs, s.cfg.Telemetry)
	if err := s.save(ctx, issues); err != nil {
		return issues, err
	}
	s.logger.InfoContext(ctx, "telemetry analyzed", "sessions", len(sessions), "logs", len(logs), "issues", len(issues))
	return issues, nil
}

func (s *QAService) save(ctx context.Context, issues []qaissue.Issue) error {
	for _, issue := range issues {
		if err := s.repos.Issues.Save(ctx, issue); err != nil {
			return fmt.Errorf("save qa issue %s: %w", issue.ID, err)
		}
	}
	return nil
}

func newIssue(issueID string, typ qaissue.Type, seasonID, matchID string, at time.Time, description string) qaissue.Issue {
	return qaissue.Issue{
		ID:          issueID,
		Type:        typ,
		SeasonID:    seasonID,
		MatchID:     matchID,
		Description: description,
		Status:      qaissue.StatusOpen,
		CreatedAt:   at,
	}
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
