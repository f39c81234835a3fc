package seasonstat

import (
	"sort"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/qa"
)

// Stat holds one player's totals for one season. Unique on (PlayerID, SeasonID).
type Stat struct {
	PlayerID      string
	PlayerName    string `validate:"required_without=PlayerID"`
	SeasonID      string `validate:"required"`
	Points        int    `validate:"gte=0"`
	Games         int    `validate:"gte=0"`
	PointsPerGame float64
	ThreePm       int `validate:"gte=0"`
	ThreePa       int `validate:"gte=0"`
	ThreePct      float64
	Ftm           int `validate:"gte=0"`
	Fta           int `validate:"gte=0"`
	FtPct         float64
	Provenance    provenance.Provenance
	// Derived rows were summed from stored boxscores and are recomputed on
	// later ingestion passes. Explicit rows are never overwritten.
	Derived bool
}

type Key struct {
	PlayerID string
	SeasonID string
}

func (s Stat) Key() Key {
	return Key{PlayerID: s.PlayerID, SeasonID: s.SeasonID}
}

// SameTotals reports whether two stats carry identical counting totals.
func (s Stat) SameTotals(other Stat) bool {
	return s.Points == other.Points &&
		s.Games == other.Games &&
		s.ThreePm == other.ThreePm &&
		s.ThreePa == other.ThreePa &&
		s.Ftm == other.Ftm &&
		s.Fta == other.Fta
}

// Recompute fills the derived per-game and percentage fields from totals.
func (s Stat) Recompute() Stat {
	s.PointsPerGame = qa.PerGame(s.Points, s.Games)
	s.ThreePct = qa.Percentage(s.ThreePm, s.ThreePa)
	s.FtPct = qa.Percentage(s.Ftm, s.Fta)
	return s
}

// Aggregate sums boxscore rows into per-player season totals. Rows must
// carry a resolved PlayerID; rows without one are ignored. Games counts
// distinct matches. A total built from any mock row is tagged mock.
func Aggregate(seasonID string, rows []boxscore.Row, at time.Time) []Stat {
	type acc struct {
		stat    Stat
		matches map[string]struct{}
		mock    bool
	}

	byPlayer := make(map[string]*acc)
	for _, row := range rows {
		if row.PlayerID == "" {
			continue
		}
		a, ok := byPlayer[row.PlayerID]
		if !ok {
			a = &acc{
				stat:    Stat{PlayerID: row.PlayerID, PlayerName: row.PlayerName, SeasonID: seasonID, Derived: true},
				matches: make(map[string]struct{}),
			}
			byPlayer[row.PlayerID] = a
		}
		a.stat.Points += row.Pts
		a.stat.ThreePm += row.ThreePm
		a.stat.ThreePa += row.ThreePa
		a.stat.Ftm += row.Ftm
		a.stat.Fta += row.Fta
		a.matches[row.MatchID] = struct{}{}
		a.mock = a.mock || row.Provenance.IsMock()
	}

	out := make([]Stat, 0, len(byPlayer))
	for _, a := range byPlayer {
		a.stat.Games = len(a.matches)
		source := provenance.SourceREST
		if a.mock {
			source = provenance.SourceMock
		}
		a.stat.Provenance = provenance.New(source, at)
		out = append(out, a.stat.Recompute())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
