// Package qa holds the side-effect-free checks used to flag suspicious
// statistics and crawl behaviour.
package qa

import (
	"math"

	"github.com/bglitzendorf/hoopstats/internal/domain/match"
)

const (
	DefaultOutlierThreshold = 4.0
	DefaultSeasonTolerance  = 2.0
)

// ZScore is (value-mean)/stdDev, or 0 when stdDev is 0.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

func IsOutlier(value, mean, stdDev, threshold float64) bool {
	return math.Abs(ZScore(value, mean, stdDev)) > threshold
}

// ValidateSeasonTotals passes when the season total is within
// tolerance*gamesPlayed of the boxscore sum.
func ValidateSeasonTotals(seasonTotal, boxscoreSum float64, gamesPlayed int, tolerance float64) bool {
	return math.Abs(seasonTotal-boxscoreSum) <= tolerance*float64(gamesPlayed)
}

// IsDuplicateMatch is a strict comparison: teams, exact kickoff instant and
// result string must all be equal.
func IsDuplicateMatch(a, b match.Match) bool {
	return a.HomeTeamID == b.HomeTeamID &&
		a.GuestTeamID == b.GuestTeamID &&
		a.Date.Equal(b.Date) &&
		a.Result == b.Result
}

// DuplicatePairs returns, for every match that duplicates an earlier one in
// the slice, the pair (earlier, later).
func DuplicatePairs(matches []match.Match) [][2]match.Match {
	first := make(map[match.FallbackKey]match.Match, len(matches))
	var out [][2]match.Match
	for _, m := range matches {
		key := m.FallbackKey()
		if prev, ok := first[key]; ok && IsDuplicateMatch(prev, m) {
			out = append(out, [2]match.Match{prev, m})
			continue
		}
		first[key] = m
	}
	return out
}

// Percentage is made/attempts*100 rounded to two decimals, 0 without attempts.
func Percentage(made, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return round2(float64(made) / float64(attempts) * 100)
}

// PerGame is total/games rounded to two decimals, 0 without games.
func PerGame(total, games int) float64 {
	if games == 0 {
		return 0
	}
	return round2(float64(total) / float64(games))
}

// QuotaVisible reports whether a shooting percentage is meaningful.
func QuotaVisible(attempts int) bool {
	return attempts > 0
}

// MeanStdDev returns the mean and population standard deviation.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
