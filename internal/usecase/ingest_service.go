package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/player"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/platform/id"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

const (
	entityLeague     = "league"
	entitySeason     = "season"
	entityTeam       = "team"
	entityPlayer     = "player"
	entityMatch      = "match"
	entityBoxscore   = "boxscore"
	entitySeasonStat = "season_stat"
)

// Batch is a set of normalised entities ready to persist.
type Batch struct {
	Leagues     []league.League
	Seasons     []season.Season
	Teams       []team.Team
	Matches     []match.Match
	Boxscores   []boxscore.Row
	SeasonStats []seasonstat.Stat
}

func (b Batch) Empty() bool {
	return len(b.Leagues) == 0 && len(b.Seasons) == 0 && len(b.Teams) == 0 &&
		len(b.Matches) == 0 && len(b.Boxscores) == 0 && len(b.SeasonStats) == 0
}

type EntityCounts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type IngestResult struct {
	Created  int                     `json:"created"`
	Skipped  int                     `json:"skipped"`
	Updated  int                     `json:"updated"`
	Failed   int                     `json:"failed"`
	Entities map[string]EntityCounts `json:"entities"`
	// Seasons lists every season touched by the batch.
	Seasons []string `json:"seasons"`
}

func (r *IngestResult) add(entity string, apply func(*EntityCounts)) {
	if r.Entities == nil {
		r.Entities = make(map[string]EntityCounts)
	}
	counts := r.Entities[entity]
	before := counts
	apply(&counts)
	r.Entities[entity] = counts
	r.Created += counts.Created - before.Created
	r.Skipped += counts.Skipped - before.Skipped
	r.Updated += counts.Updated - before.Updated
	r.Failed += counts.Failed - before.Failed
}

func (r *IngestResult) created(entity string) { r.add(entity, func(c *EntityCounts) { c.Created++ }) }
func (r *IngestResult) skipped(entity string) { r.add(entity, func(c *EntityCounts) { c.Skipped++ }) }
func (r *IngestResult) updated(entity string) { r.add(entity, func(c *EntityCounts) { c.Updated++ }) }
func (r *IngestResult) failed(entity string)  { r.add(entity, func(c *EntityCounts) { c.Failed++ }) }

type IngestRepositories struct {
	Leagues     league.Repository
	Seasons     season.Repository
	Teams       team.Repository
	Players     player.Repository
	Matches     match.Repository
	Boxscores   boxscore.Repository
	SeasonStats seasonstat.Repository
}

type IngestService struct {
	repos     IngestRepositories
	ids       id.Generator
	validator *validator.Validate
	logger    *logging.Logger
	now       func() time.Time
}

func NewIngestService(repos IngestRepositories, ids id.Generator, logger *logging.Logger) *IngestService {
	if ids == nil {
		ids = id.NewTimeOrderedGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		repos:     repos,
		ids:       ids,
		validator: validator.New(),
		logger:    logger.Named("ingest"),
		now:       time.Now,
	}
}

// ingestRun carries per-call lookups so one batch does not re-query the
// same player or season twice.
type ingestRun struct {
	result        IngestResult
	players       map[string]string
	seasonMatches map[string][]match.Match
	seasons       map[string]struct{}
}

// Ingest persists the batch entity by entity. A failure on one entity is
// logged and counted; the batch always runs to completion. Only missing
// repositories and context cancellation return an error.
func (s *IngestService) Ingest(ctx context.Context, batch Batch) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.Ingest",
		attribute.Int("batch.leagues", len(batch.Leagues)),
		attribute.Int("batch.matches", len(batch.Matches)),
		attribute.Int("batch.boxscores", len(batch.Boxscores)),
		attribute.Int("batch.season_stats", len(batch.SeasonStats)),
	)
	defer span.End()

	if err := s.checkRepositories(); err != nil {
		return IngestResult{}, err
	}

	run := &ingestRun{
		players:       make(map[string]string),
		seasonMatches: make(map[string][]match.Match),
		seasons:       make(map[string]struct{}),
	}

	seasons := batch.Seasons
	if len(seasons) == 0 {
		seasons = normalize.Seasons(batch.Leagues)
	}

	steps := []func(){
		func() { s.ingestLeagues(ctx, run, batch.Leagues) },
		func() { s.ingestSeasons(ctx, run, seasons) },
		func() { s.ingestTeams(ctx, run, batch.Teams) },
		func() { s.ingestMatches(ctx, run, batch.Matches) },
		func() { s.ingestBoxscores(ctx, run, batch) },
		func() { s.ingestSeasonStats(ctx, run, batch.SeasonStats) },
		func() { s.aggregateSeasonStats(ctx, run, batch) },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return run.result, fmt.Errorf("ingest batch: %w", err)
		}
		step()
	}

	for seasonID := range run.seasons {
		run.result.Seasons = append(run.result.Seasons, seasonID)
	}
	sort.Strings(run.result.Seasons)

	s.logger.InfoContext(ctx, "ingest finished",
		"created", run.result.Created,
		"skipped", run.result.Skipped,
		"updated", run.result.Updated,
		"failed", run.result.Failed,
	)
	return run.result, nil
}

func (s *IngestService) checkRepositories() error {
	r := s.repos
	if r.Leagues == nil || r.Seasons == nil || r.Teams == nil || r.Players == nil ||
		r.Matches == nil || r.Boxscores == nil || r.SeasonStats == nil {
		return fmt.Errorf("%w: ingest repositories are not configured", ErrDependencyUnavailable)
	}
	return nil
}

func (s *IngestService) validate(ctx context.Context, item any) error {
	if err := s.validator.StructCtx(ctx, item); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *IngestService) fail(ctx context.Context, run *ingestRun, entity, key string, err error) {
	run.result.failed(entity)
	s.logger.WarnContext(ctx, "ingest entity failed", "entity", entity, "key", key, "error", err)
}

// create records the outcome of a Create call; a natural-key conflict
// means another writer got there first and counts as skipped.
func (s *IngestService) create(ctx context.Context, run *ingestRun, entity, key string, err error) bool {
	switch {
	case err == nil:
		run.result.created(entity)
		return true
	case errors.Is(err, store.ErrConflict):
		run.result.skipped(entity)
	default:
		s.fail(ctx, run, entity, key, fmt.Errorf("create %s: %w", entity, err))
	}
	return false
}

func (s *IngestService) ingestLeagues(ctx context.Context, run *ingestRun, leagues []league.League) {
	for _, l := range leagues {
		key := l.Key().String()
		if err := s.validate(ctx, l); err != nil {
			s.fail(ctx, run, entityLeague, key, err)
			continue
		}
		run.seasons[l.SeasonID] = struct{}{}

		var (
			found bool
			err   error
		)
		if l.Synthetic {
			_, found, err = s.repos.Leagues.FindSynthetic(ctx, l.Name, l.SeasonID, l.Provenance.Source)
		} else {
			_, found, err = s.repos.Leagues.FindByKey(ctx, l.Key())
		}
		if err != nil {
			s.fail(ctx, run, entityLeague, key, fmt.Errorf("find league: %w", err))
			continue
		}
		if found {
			run.result.skipped(entityLeague)
			continue
		}
		s.create(ctx, run, entityLeague, key, s.repos.Leagues.Create(ctx, l))
	}
}

func (s *IngestService) ingestSeasons(ctx context.Context, run *ingestRun, seasons []season.Season) {
	for _, item := range seasons {
		if item.Year == 0 {
			item.Year = season.YearOf(item.ID)
		}
		if err := s.validate(ctx, item); err != nil {
			s.fail(ctx, run, entitySeason, item.ID, err)
			continue
		}
		run.seasons[item.ID] = struct{}{}

		_, found, err := s.repos.Seasons.FindByID(ctx, item.ID)
		if err != nil {
			s.fail(ctx, run, entitySeason, item.ID, fmt.Errorf("find season: %w", err))
			continue
		}
		if found {
			run.result.skipped(entitySeason)
			continue
		}
		s.create(ctx, run, entitySeason, item.ID, s.repos.Seasons.Create(ctx, item))
	}
}

func (s *IngestService) ingestTeams(ctx context.Context, run *ingestRun, teams []team.Team) {
	for _, t := range teams {
		t.Name = strings.TrimSpace(t.Name)
		if err := s.validate(ctx, t); err != nil {
			s.fail(ctx, run, entityTeam, t.ID, err)
			continue
		}

		existing, found, err := s.repos.Teams.FindByID(ctx, t.ID)
		if err != nil {
			s.fail(ctx, run, entityTeam, t.ID, fmt.Errorf("find team: %w", err))
			continue
		}
		if !found {
			s.create(ctx, run, entityTeam, t.ID, s.repos.Teams.Create(ctx, t))
			continue
		}
		if _, changed := existing.WithAlias(t.Name); !changed {
			run.result.skipped(entityTeam)
			continue
		}
		if err := s.repos.Teams.AppendAlias(ctx, t.ID, t.Name); err != nil {
			s.fail(ctx, run, entityTeam, t.ID, fmt.Errorf("append team alias: %w", err))
			continue
		}
		run.result.updated(entityTeam)
	}
}

func (s *IngestService) ingestMatches(ctx context.Context, run *ingestRun, matches []match.Match) {
	for _, m := range matches {
		if m.Status == "" {
			m.Status = match.StatusScheduled
		}
		if err := s.validate(ctx, m); err != nil {
			s.fail(ctx, run, entityMatch, m.ID, err)
			continue
		}
		run.seasons[m.SeasonID] = struct{}{}

		existing, found, err := s.repos.Matches.FindByID(ctx, m.ID)
		if err != nil {
			s.fail(ctx, run, entityMatch, m.ID, fmt.Errorf("find match: %w", err))
			continue
		}
		if found {
			if !match.CanTransition(existing.Status, m.Status) {
				run.result.skipped(entityMatch)
				continue
			}
			changed, err := s.repos.Matches.UpdateStatus(ctx, m.ID, m.Status, m.Result)
			if err != nil {
				s.fail(ctx, run, entityMatch, m.ID, fmt.Errorf("update match status: %w", err))
				continue
			}
			if changed {
				run.result.updated(entityMatch)
			} else {
				run.result.skipped(entityMatch)
			}
			continue
		}

		if m.Synthetic {
			duplicate, err := s.hasFallbackDuplicate(ctx, run, m)
			if err != nil {
				s.fail(ctx, run, entityMatch, m.ID, err)
				continue
			}
			if duplicate {
				run.result.skipped(entityMatch)
				continue
			}
		}
		if s.create(ctx, run, entityMatch, m.ID, s.repos.Matches.Create(ctx, m)) {
			run.seasonMatches[m.SeasonID] = append(run.seasonMatches[m.SeasonID], m)
		}
	}
}

// hasFallbackDuplicate compares a match without a stable source id against
// the stored season on (home, guest, date, result).
func (s *IngestService) hasFallbackDuplicate(ctx context.Context, run *ingestRun, m match.Match) (bool, error) {
	stored, ok := run.seasonMatches[m.SeasonID]
	if !ok {
		var err error
		stored, err = s.repos.Matches.ListBySeason(ctx, m.SeasonID)
		if err != nil {
			return false, fmt.Errorf("list season matches: %w", err)
		}
		run.seasonMatches[m.SeasonID] = stored
	}
	key := m.FallbackKey()
	for _, other := range stored {
		if other.FallbackKey() == key {
			return true, nil
		}
	}
	return false, nil
}

// resolvePlayer returns the stored id for a player line. Exact name match
// wins; a known source id with a new spelling gains an alias; otherwise the
// player is created.
func (s *IngestService) resolvePlayer(ctx context.Context, run *ingestRun, sourceID, name string) (string, error) {
	name = strings.TrimSpace(name)
	cacheKey := sourceID + "\x00" + name
	if playerID, ok := run.players[cacheKey]; ok {
		return playerID, nil
	}

	playerID, err := s.lookupPlayer(ctx, run, sourceID, name)
	if err != nil {
		return "", err
	}
	run.players[cacheKey] = playerID
	return playerID, nil
}

func (s *IngestService) lookupPlayer(ctx context.Context, run *ingestRun, sourceID, name string) (string, error) {
	if name != "" {
		p, found, err := s.repos.Players.FindByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("find player by name: %w", err)
		}
		if found {
			run.result.skipped(entityPlayer)
			return p.ID, nil
		}
	}

	if sourceID != "" {
		p, found, err := s.repos.Players.FindByID(ctx, sourceID)
		if err != nil {
			return "", fmt.Errorf("find player by id: %w", err)
		}
		if found {
			if _, changed := p.WithAlias(name); changed {
				if err := s.repos.Players.AppendAlias(ctx, p.ID, name); err != nil {
					return "", fmt.Errorf("append player alias: %w", err)
				}
				run.result.updated(entityPlayer)
			} else {
				run.result.skipped(entityPlayer)
			}
			return p.ID, nil
		}
	}

	playerID := sourceID
	if playerID == "" {
		generated, err := s.ids.NewID(entityPlayer)
		if err != nil {
			return "", fmt.Errorf("generate player id: %w", err)
		}
		playerID = generated
	}
	p := player.Player{ID: playerID, Name: name}
	if err := s.validate(ctx, p); err != nil {
		return "", err
	}

	err := s.repos.Players.Create(ctx, p)
	switch {
	case err == nil:
		run.result.created(entityPlayer)
		return playerID, nil
	case errors.Is(err, store.ErrConflict):
		existing, found, findErr := s.repos.Players.FindByName(ctx, name)
		if findErr != nil {
			return "", fmt.Errorf("find player after conflict: %w", findErr)
		}
		if !found {
			return "", fmt.Errorf("create player %q: %w", name, err)
		}
		run.result.skipped(entityPlayer)
		return existing.ID, nil
	default:
		return "", fmt.Errorf("create player: %w", err)
	}
}

func (s *IngestService) ingestBoxscores(ctx context.Context, run *ingestRun, batch Batch) {
	for _, row := range batch.Boxscores {
		row.PlayerName = strings.TrimSpace(row.PlayerName)
		if err := s.validate(ctx, row); err != nil {
			s.fail(ctx, run, entityBoxscore, row.MatchID, err)
			continue
		}

		playerID, err := s.resolvePlayer(ctx, run, row.PlayerID, row.PlayerName)
		if err != nil {
			run.result.failed(entityPlayer)
			s.logger.WarnContext(ctx, "resolve player failed", "player", row.PlayerName, "match_id", row.MatchID, "error", err)
		} else {
			row.PlayerID = playerID
		}

		key := row.Key()
		keyText := key.MatchID + "/" + key.TeamID + "/" + key.PlayerKey
		_, found, err := s.repos.Boxscores.FindByKey(ctx, key)
		if err != nil {
			s.fail(ctx, run, entityBoxscore, keyText, fmt.Errorf("find boxscore row: %w", err))
			continue
		}
		if found {
			run.result.skipped(entityBoxscore)
			continue
		}
		if row.ID == "" {
			row.ID, err = s.ids.NewID(entityBoxscore)
			if err != nil {
				s.fail(ctx, run, entityBoxscore, keyText, fmt.Errorf("generate boxscore id: %w", err))
				continue
			}
		}
		s.create(ctx, run, entityBoxscore, keyText, s.repos.Boxscores.Create(ctx, row))
	}
}

// ingestSeasonStats stores explicit season totals, first write wins.
func (s *IngestService) ingestSeasonStats(ctx context.Context, run *ingestRun, stats []seasonstat.Stat) {
	for _, stat := range stats {
		stat.PlayerName = strings.TrimSpace(stat.PlayerName)
		if err := s.validate(ctx, stat); err != nil {
			s.fail(ctx, run, entitySeasonStat, stat.PlayerName, err)
			continue
		}
		run.seasons[stat.SeasonID] = struct{}{}

		playerID, err := s.resolvePlayer(ctx, run, stat.PlayerID, stat.PlayerName)
		if err != nil {
			s.fail(ctx, run, entitySeasonStat, stat.PlayerName, err)
			continue
		}
		stat.PlayerID = playerID
		stat.Derived = false
		if stat.PointsPerGame == 0 {
			stat = stat.Recompute()
		}
		s.storeSeasonStat(ctx, run, stat)
	}
}

// aggregateSeasonStats derives totals from every stored boxscore row of each
// season the batch touched. Players without a stored row get one; derived
// rows from earlier passes are brought up to date.
func (s *IngestService) aggregateSeasonStats(ctx context.Context, run *ingestRun, batch Batch) {
	if len(batch.Boxscores) == 0 {
		return
	}

	matchSeason := make(map[string]string, len(batch.Matches))
	for _, m := range batch.Matches {
		matchSeason[m.ID] = m.SeasonID
	}
	seasonIDs := make(map[string]struct{})
	for _, row := range batch.Boxscores {
		seasonID, ok := matchSeason[row.MatchID]
		if !ok {
			m, found, err := s.repos.Matches.FindByID(ctx, row.MatchID)
			if err != nil || !found {
				continue
			}
			seasonID = m.SeasonID
			matchSeason[row.MatchID] = seasonID
		}
		seasonIDs[seasonID] = struct{}{}
	}

	for _, seasonID := range sortedKeys(seasonIDs) {
		rows, err := s.seasonRows(ctx, seasonID)
		if err != nil {
			s.fail(ctx, run, entitySeasonStat, seasonID, err)
			continue
		}
		for _, stat := range seasonstat.Aggregate(seasonID, rows, s.now()) {
			s.storeSeasonStat(ctx, run, stat)
		}
	}
}

func (s *IngestService) seasonRows(ctx context.Context, seasonID string) ([]boxscore.Row, error) {
	matches, err := s.repos.Matches.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list season matches: %w", err)
	}
	var rows []boxscore.Row
	for _, m := range matches {
		matchRows, err := s.repos.Boxscores.ListByMatch(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list boxscore rows for %s: %w", m.ID, err)
		}
		rows = append(rows, matchRows...)
	}
	return rows, nil
}

// storeSeasonStat is first-write-wins for explicit rows. A stored derived
// row is recomputed when the boxscores behind it changed.
func (s *IngestService) storeSeasonStat(ctx context.Context, run *ingestRun, stat seasonstat.Stat) {
	key := stat.PlayerID + "/" + stat.SeasonID
	existing, found, err := s.repos.SeasonStats.FindByKey(ctx, stat.Key())
	if err != nil {
		s.fail(ctx, run, entitySeasonStat, key, fmt.Errorf("find season stat: %w", err))
		return
	}
	if !found {
		s.create(ctx, run, entitySeasonStat, key, s.repos.SeasonStats.Create(ctx, stat))
		return
	}
	if !stat.Derived || !existing.Derived || existing.SameTotals(stat) {
		run.result.skipped(entitySeasonStat)
		return
	}

	replaced, err := s.repos.SeasonStats.ReplaceDerived(ctx, stat)
	switch {
	case err != nil:
		s.fail(ctx, run, entitySeasonStat, key, fmt.Errorf("replace season stat: %w", err))
	case replaced:
		run.result.updated(entitySeasonStat)
	default:
		run.result.skipped(entitySeasonStat)
	}
}
