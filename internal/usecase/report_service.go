package usecase

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/qa"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/stats"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
)

// SquadMatcher recognises tracked-club teams and their squad number.
type SquadMatcher interface {
	TeamMatcher
	SquadLevel(name string) (int, bool)
}

type PlayerReport struct {
	PlayerID      string         `json:"player_id"`
	PlayerName    string         `json:"player_name"`
	Squad         int            `json:"squad,omitempty"`
	Games         int            `json:"games"`
	Points        int            `json:"points"`
	PointsPerGame float64        `json:"points_per_game"`
	ThreePct      *float64       `json:"three_pct,omitempty"`
	FtPct         *float64       `json:"ft_pct,omitempty"`
	Advanced      stats.Advanced `json:"advanced"`
	Mock          bool           `json:"mock"`
}

type ClubReport struct {
	SeasonID string         `json:"season_id"`
	Players  []PlayerReport `json:"players"`
}

type ReportRepositories struct {
	Teams       team.Repository
	Matches     match.Repository
	Boxscores   boxscore.Repository
	SeasonStats seasonstat.Repository
}

type ReportService struct {
	repos     ReportRepositories
	matcher   SquadMatcher
	estimator stats.Estimator
}

func NewReportService(repos ReportRepositories, matcher SquadMatcher, estimator stats.Estimator) *ReportService {
	if estimator == nil {
		estimator = stats.HeuristicEstimator{}
	}
	return &ReportService{repos: repos, matcher: matcher, estimator: estimator}
}

// TrackedClubReport lists season lines for players who appeared for a
// tracked-club team. Seasons without tracked boxscore lines report every
// stored season line, since imported season files are already club-scoped.
func (s *ReportService) TrackedClubReport(ctx context.Context, seasonID string) (ClubReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.TrackedClubReport", attribute.String("season_id", seasonID))
	defer span.End()

	if seasonID == "" {
		return ClubReport{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if s.repos.Teams == nil || s.repos.Matches == nil || s.repos.Boxscores == nil || s.repos.SeasonStats == nil {
		return ClubReport{}, fmt.Errorf("%w: report repositories are not configured", ErrDependencyUnavailable)
	}

	squads, err := s.trackedPlayers(ctx, seasonID)
	if err != nil {
		return ClubReport{}, err
	}

	seasonStats, err := s.repos.SeasonStats.ListBySeason(ctx, seasonID)
	if err != nil {
		return ClubReport{}, fmt.Errorf("list season stats: %w", err)
	}

	report := ClubReport{SeasonID: seasonID, Players: make([]PlayerReport, 0, len(seasonStats))}
	for _, stat := range seasonStats {
		squad, tracked := squads[stat.PlayerID]
		if len(squads) > 0 && !tracked {
			continue
		}
		line := PlayerReport{
			PlayerID:      stat.PlayerID,
			PlayerName:    stat.PlayerName,
			Squad:         squad,
			Games:         stat.Games,
			Points:        stat.Points,
			PointsPerGame: qa.PerGame(stat.Points, stat.Games),
			Advanced:      s.estimator.Estimate(stat),
			Mock:          stat.Provenance.IsMock(),
		}
		if qa.QuotaVisible(stat.ThreePa) {
			pct := qa.Percentage(stat.ThreePm, stat.ThreePa)
			line.ThreePct = &pct
		}
		if qa.QuotaVisible(stat.Fta) {
			pct := qa.Percentage(stat.Ftm, stat.Fta)
			line.FtPct = &pct
		}
		report.Players = append(report.Players, line)
	}

	sort.SliceStable(report.Players, func(i, j int) bool {
		a, b := report.Players[i], report.Players[j]
		if a.PointsPerGame != b.PointsPerGame {
			return a.PointsPerGame > b.PointsPerGame
		}
		return a.PlayerName < b.PlayerName
	})
	return report, nil
}

// trackedPlayers maps player id to the lowest squad number the player
// appeared for in the season.
func (s *ReportService) trackedPlayers(ctx context.Context, seasonID string) (map[string]int, error) {
	squads := make(map[string]int)
	if s.matcher == nil {
		return squads, nil
	}

	teams, err := s.repos.Teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teamSquad := make(map[string]int)
	for _, t := range teams {
		if level, ok := s.matcher.SquadLevel(t.Name); ok {
			teamSquad[t.ID] = level
		}
	}

	matches, err := s.repos.Matches.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list season matches: %w", err)
	}
	for _, m := range matches {
		rows, err := s.repos.Boxscores.ListByMatch(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list boxscore rows for %s: %w", m.ID, err)
		}
		for _, row := range rows {
			level, ok := teamSquad[row.TeamID]
			if !ok && s.matcher.IsTracked(row.TeamID) {
				level, ok = 1, true
			}
			if !ok || row.PlayerID == "" {
				continue
			}
			if current, seen := squads[row.PlayerID]; !seen || level < current {
				squads[row.PlayerID] = level
			}
		}
	}
	return squads, nil
}
