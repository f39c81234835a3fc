package federation

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
)

const (
	fallbackName         = "mock-data"
	mockMatchesPerLeague = 10
	mockDefaultYear      = 2023
)

var (
	mockLeagues = []league.League{
		{LigaID: "bol-oberfranken", SeasonID: normalize.DefaultSeasonID, Name: "Bezirksoberliga Oberfranken", Level: "BOL", Region: "Oberfranken"},
		{LigaID: "bl-oberfranken", SeasonID: normalize.DefaultSeasonID, Name: "Bezirksliga Oberfranken", Level: "BL", Region: "Oberfranken"},
	}

	mockTeams = []team.Team{
		{ID: "team-bgl1", Name: "BG Litzendorf 1"},
		{ID: "team-bgl2", Name: "BG Litzendorf 2"},
		{ID: "team-bamberg", Name: "BG Bamberg"},
		{ID: "team-bayreuth", Name: "TSG Bayreuth"},
		{ID: "team-coburg", Name: "TSV Coburg"},
	}

	mockPlayers = []string{
		"Max Mustermann", "John Doe", "Michael Schmidt", "Andreas Weber",
		"Thomas Müller", "Peter Hansen", "Stefan Richter", "Klaus Meyer",
	}
)

// FallbackSource synthesizes a small, deterministic data set tagged with
// the mock-data source. It never fails.
type FallbackSource struct {
	now func() time.Time
}

func NewFallbackSource(now func() time.Time) *FallbackSource {
	if now == nil {
		now = time.Now
	}
	return &FallbackSource{now: now}
}

func (s *FallbackSource) Name() string { return fallbackName }

func (s *FallbackSource) provenance() provenance.Provenance {
	return provenance.New(provenance.SourceMock, s.now())
}

func (s *FallbackSource) Leagues(context.Context) ([]league.League, error) {
	prov := s.provenance()
	out := make([]league.League, len(mockLeagues))
	for i, l := range mockLeagues {
		l.Provenance = prov
		out[i] = l
	}
	return out, nil
}

// SeasonMatches returns ten matches in which the first tracked team plays
// every fixture. The first seven are finished with a fixed score.
func (s *FallbackSource) SeasonMatches(_ context.Context, l league.League) (normalize.MatchBatch, error) {
	prov := s.provenance()
	year := season.YearOf(l.SeasonID)
	if year == 0 {
		year = mockDefaultYear
	}

	batch := normalize.MatchBatch{
		Matches: make([]match.Match, 0, mockMatchesPerLeague),
		Teams:   append([]team.Team(nil), mockTeams...),
	}
	opponents := mockTeams[1:]
	for i := 0; i < mockMatchesPerLeague; i++ {
		home, guest := mockTeams[0].ID, opponents[i%len(opponents)].ID
		if i%2 == 1 {
			home, guest = guest, home
		}
		m := match.Match{
			ID:          fmt.Sprintf("mock-%s-match-%d", l.LigaID, i+1),
			MatchNo:     i + 1,
			SeasonID:    l.SeasonID,
			LigaID:      l.LigaID,
			Date:        time.Date(year, time.Month(10+i/3), i%7+15, 19, 0, 0, 0, time.UTC),
			HomeTeamID:  home,
			GuestTeamID: guest,
			Status:      match.StatusScheduled,
			Provenance:  prov,
		}
		if i%mockMatchesPerLeague < 7 {
			m.Status = match.StatusFinished
			m.Result = fmt.Sprintf("%d:%d", 60+(i*7)%25, 55+(i*11)%25)
		}
		batch.Matches = append(batch.Matches, m)
	}
	return batch, nil
}

// MatchBoxscore returns five to seven home-team lines whose made shots never
// exceed attempts. The same match always yields the same rows.
func (s *FallbackSource) MatchBoxscore(_ context.Context, m match.Match) ([]boxscore.Row, error) {
	prov := s.provenance()
	seed := hashOf(m.ID)
	count := 5 + int(seed%3)

	rows := make([]boxscore.Row, 0, count)
	for i := 0; i < count; i++ {
		idx := (int(seed>>8) + i) % len(mockPlayers)
		v := int((seed >> (i % 24)) & 0xff)
		threePa := v % 6
		fta := (v / 6) % 7
		threePm := threePa / 2
		ftm := fta - fta/3
		rows = append(rows, boxscore.Row{
			MatchID:    m.ID,
			TeamID:     m.HomeTeamID,
			PlayerID:   fmt.Sprintf("mock-player-%d", idx+1),
			PlayerName: mockPlayers[idx],
			Pts:        threePm*3 + ftm + 2*(v%5),
			ThreePm:    threePm,
			ThreePa:    threePa,
			Ftm:        ftm,
			Fta:        fta,
			Provenance: prov,
		})
	}
	return rows, nil
}

func hashOf(value string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(value))
	return h.Sum64()
}
