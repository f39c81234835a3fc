package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/platform/id"
)

const (
	DefaultSeasonID   = "2023-24"
	unknownLeagueName = "Unknown League"
)

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

type Normalizer struct {
	ids           id.Generator
	now           func() time.Time
	defaultSeason string
}

type Option func(*Normalizer)

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithDefaultSeason sets the season assigned to leagues that carry none.
func WithDefaultSeason(seasonID string) Option {
	return func(n *Normalizer) { n.defaultSeason = seasonID }
}

func New(ids id.Generator, opts ...Option) *Normalizer {
	if ids == nil {
		ids = id.NewTimeOrderedGenerator()
	}
	n := &Normalizer{ids: ids, now: time.Now, defaultSeason: DefaultSeasonID}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) syntheticID(kind string) string {
	value, err := n.ids.NewID(kind)
	if err != nil {
		return id.SyntheticPrefix + kind + "-" + strconv.FormatInt(n.now().UnixNano(), 36)
	}
	return value
}

// Leagues maps any of the four recognised league payload shapes.
func (n *Normalizer) Leagues(raw any, prov provenance.Provenance) []league.League {
	payload := Classify(raw)
	out := make([]league.League, 0, len(payload.Items))
	for _, item := range payload.Items {
		l := league.League{
			LigaID:     stringField(item, leagueIDKeys),
			SeasonID:   stringField(item, seasonIDKeys),
			Name:       stringField(item, leagueNameKeys),
			Level:      stringField(item, levelKeys),
			Region:     stringField(item, regionKeys),
			Provenance: prov,
		}
		if l.LigaID == "" {
			l.LigaID = n.syntheticID("league")
			l.Synthetic = true
		}
		if l.SeasonID == "" {
			l.SeasonID = n.defaultSeason
		}
		if l.Name == "" {
			l.Name = unknownLeagueName
		}
		out = append(out, l)
	}
	return out
}

// MatchBatch is the result of normalising a season schedule. Teams holds
// every team whose name appeared inline, keyed by the ids used in Matches.
type MatchBatch struct {
	Matches []match.Match
	Teams   []team.Team
}

func (n *Normalizer) Matches(raw any, ligaID, seasonID string, prov provenance.Provenance) MatchBatch {
	items := Classify(raw).Items
	if obj, ok := raw.(record); ok {
		if inner, ok := envelope(obj, "matches"); ok {
			items = inner
		}
	}

	teams := make(map[string]team.Team)
	var teamOrder []string
	addTeam := func(teamID, name string) {
		if teamID == "" || name == "" {
			return
		}
		if _, ok := teams[teamID]; ok {
			return
		}
		teams[teamID] = team.Team{ID: teamID, Name: name}
		teamOrder = append(teamOrder, teamID)
	}

	batch := MatchBatch{Matches: make([]match.Match, 0, len(items))}
	for _, item := range items {
		m := match.Match{
			ID:         stringField(item, matchIDKeys),
			MatchNo:    intField(item, matchNoKeys),
			SeasonID:   seasonID,
			LigaID:     ligaID,
			Result:     stringField(item, resultKeys),
			Status:     match.ParseStatus(stringField(item, statusKeys)),
			Provenance: prov,
		}
		if m.ID == "" {
			m.ID = n.syntheticID("match")
			m.Synthetic = true
		}
		m.Date = n.now().UTC()
		if v, ok := first(item, matchDateKeys); ok {
			if parsed, ok := asTime(v); ok {
				m.Date = parsed
			}
		}

		var homeName, guestName string
		m.HomeTeamID, homeName = n.teamRef(item, []string{"homeTeamId", "home_team_id"}, []string{"homeTeam", "home"}, []string{"homeTeamName"})
		m.GuestTeamID, guestName = n.teamRef(item, []string{"guestTeamId", "guest_team_id", "awayTeamId"}, []string{"guestTeam", "awayTeam", "guest"}, []string{"guestTeamName", "awayTeamName"})
		addTeam(m.HomeTeamID, homeName)
		addTeam(m.GuestTeamID, guestName)

		batch.Matches = append(batch.Matches, m)
	}

	for _, teamID := range teamOrder {
		batch.Teams = append(batch.Teams, teams[teamID])
	}
	return batch
}

// teamRef resolves a team id and display name from an explicit id key, an
// embedded team object or name string, or a separate name key.
func (n *Normalizer) teamRef(item record, idKeys, objKeys, nameKeys []string) (string, string) {
	teamID := stringField(item, idKeys)
	var name string
	for _, key := range objKeys {
		switch v := item[key].(type) {
		case record:
			if teamID == "" {
				teamID = stringField(v, []string{"id", "teamId"})
			}
			if name == "" {
				name = stringField(v, []string{"name", "teamName"})
			}
		case string:
			if name == "" {
				name = strings.TrimSpace(v)
			}
		}
	}
	if name == "" {
		name = stringField(item, nameKeys)
	}
	if teamID == "" && name != "" {
		teamID = "team-" + strings.Trim(slugRegex.ReplaceAllString(strings.ToLower(name), "-"), "-")
	}
	if teamID == "" {
		teamID = n.syntheticID("team")
	}
	return teamID, name
}

// Boxscore reads a match-info payload whose boxscore (or playerStats)
// object maps team ids to player lines. Unrecognised payloads yield no rows.
func (n *Normalizer) Boxscore(raw any, matchID string, prov provenance.Provenance) []boxscore.Row {
	obj, ok := raw.(record)
	if !ok {
		return nil
	}
	stats, ok := nested(obj, "boxscore")
	if !ok {
		if stats, ok = nested(obj, "playerStats"); !ok {
			return nil
		}
	}

	teamIDs := make([]string, 0, len(stats))
	for teamID := range stats {
		teamIDs = append(teamIDs, teamID)
	}
	sort.Strings(teamIDs)

	var rows []boxscore.Row
	for _, teamID := range teamIDs {
		players, ok := stats[teamID].([]any)
		if !ok {
			continue
		}
		for _, p := range objects(players) {
			row := boxscore.Row{
				MatchID:    matchID,
				TeamID:     teamID,
				PlayerID:   stringField(p, playerIDKeys),
				PlayerName: stringField(p, playerNameKeys),
				Pts:        nonNegative(intField(p, ptsKeys)),
				ThreePm:    nonNegative(intField(p, threePmKeys)),
				ThreePa:    nonNegative(intField(p, threePaKeys)),
				Ftm:        nonNegative(intField(p, ftmKeys)),
				Fta:        nonNegative(intField(p, ftaKeys)),
				Provenance: prov,
			}
			if row.PlayerName == "" {
				row.PlayerName = row.PlayerID
			}
			if row.PlayerName == "" {
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// SeasonImport is one crawled season statistics file.
type SeasonImport struct {
	SeasonID string
	Leagues  []league.League
	Stats    []seasonstat.Stat
}

// SeasonFile reads the crawled season layout:
// {season, liga_ids:[{liga_id,name}], players:[{name,col_2..col_10}]}.
// It reports false when the payload carries no season.
func (n *Normalizer) SeasonFile(raw any, prov provenance.Provenance) (SeasonImport, bool) {
	obj, ok := raw.(record)
	if !ok {
		return SeasonImport{}, false
	}
	seasonID := asString(obj["season"])
	if seasonID == "" {
		return SeasonImport{}, false
	}

	out := SeasonImport{SeasonID: seasonID}
	if ligen, ok := obj["liga_ids"].([]any); ok {
		for _, item := range objects(ligen) {
			ligaID := asString(item["liga_id"])
			if ligaID == "" {
				continue
			}
			name := asString(item["name"])
			if name == "" {
				name = unknownLeagueName
			}
			out.Leagues = append(out.Leagues, league.League{
				LigaID:     ligaID,
				SeasonID:   seasonID,
				Name:       name,
				Provenance: prov,
			})
		}
	}

	if players, ok := obj["players"].([]any); ok {
		for _, p := range objects(players) {
			name := asString(p["name"])
			if name == "" {
				continue
			}
			out.Stats = append(out.Stats, seasonstat.Stat{
				PlayerName:    name,
				SeasonID:      seasonID,
				Points:        nonNegative(asInt(p["col_2"])),
				Games:         nonNegative(asInt(p["col_3"])),
				PointsPerGame: asFloat(p["col_4"]),
				ThreePm:       nonNegative(asInt(p["col_5"])),
				ThreePa:       nonNegative(asInt(p["col_6"])),
				ThreePct:      asFloat(p["col_7"]),
				Ftm:           nonNegative(asInt(p["col_8"])),
				Fta:           nonNegative(asInt(p["col_9"])),
				FtPct:         asFloat(p["col_10"]),
				Provenance:    prov,
			})
		}
	}
	return out, true
}

// Seasons derives one season row per distinct season id, owned by the first
// league that referenced it.
func Seasons(leagues []league.League) []season.Season {
	seen := make(map[string]struct{}, len(leagues))
	out := make([]season.Season, 0, len(leagues))
	for _, l := range leagues {
		if l.SeasonID == "" {
			continue
		}
		if _, ok := seen[l.SeasonID]; ok {
			continue
		}
		seen[l.SeasonID] = struct{}{}
		out = append(out, season.Season{ID: l.SeasonID, Year: season.YearOf(l.SeasonID), LigaID: l.LigaID})
	}
	return out
}

// DedupeSynthetic collapses synthetic leagues sharing (name, season, source),
// keeping the first. Leagues with source-provided ids pass through.
func DedupeSynthetic(leagues []league.League) []league.League {
	seen := make(map[string]struct{})
	out := make([]league.League, 0, len(leagues))
	for _, l := range leagues {
		if l.Synthetic {
			key := l.DedupeKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
