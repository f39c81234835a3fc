package federation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/teammatch"
)

func TestFallbackSource_IsDeterministicAndMarkedMock(t *testing.T) {
	t.Parallel()

	src := NewFallbackSource(func() time.Time { return fixedNow })
	ctx := context.Background()

	leagues, err := src.Leagues(ctx)
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	for _, l := range leagues {
		assert.True(t, l.Provenance.IsMock())
		assert.Equal(t, "2023-24", l.SeasonID)
	}

	batch, err := src.SeasonMatches(ctx, leagues[0])
	require.NoError(t, err)
	require.Len(t, batch.Matches, 10)
	assert.Len(t, batch.Teams, 5)

	finished := 0
	matcher := teammatch.Default()
	names := map[string]string{}
	for _, tm := range batch.Teams {
		names[tm.ID] = tm.Name
	}
	for _, m := range batch.Matches {
		assert.True(t, m.Provenance.IsMock())
		assert.NotEqual(t, m.HomeTeamID, m.GuestTeamID)
		assert.True(t, matcher.AnyTracked(names[m.HomeTeamID], names[m.GuestTeamID]))
		if m.Status == match.StatusFinished {
			finished++
			assert.NotEmpty(t, m.Result)
		}
	}
	assert.Equal(t, 7, finished)
	assert.Equal(t, "mock-bol-oberfranken-match-1", batch.Matches[0].ID)
	assert.Equal(t, time.Date(2023, time.October, 15, 19, 0, 0, 0, time.UTC), batch.Matches[0].Date)

	again, err := src.SeasonMatches(ctx, leagues[0])
	require.NoError(t, err)
	assert.Equal(t, batch, again)
}

func TestFallbackSource_BoxscoreRowsAreConsistent(t *testing.T) {
	t.Parallel()

	src := NewFallbackSource(func() time.Time { return fixedNow })
	m := match.Match{ID: "mock-bol-oberfranken-match-1", HomeTeamID: "team-bgl1"}

	rows, err := src.MatchBoxscore(context.Background(), m)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 5)
	require.LessOrEqual(t, len(rows), 7)

	seen := map[string]bool{}
	for _, row := range rows {
		assert.LessOrEqual(t, row.ThreePm, row.ThreePa)
		assert.LessOrEqual(t, row.Ftm, row.Fta)
		assert.GreaterOrEqual(t, row.Pts, 0)
		assert.Equal(t, "team-bgl1", row.TeamID)
		assert.True(t, row.Provenance.IsMock())
		assert.False(t, seen[row.PlayerID], "duplicate player %s", row.PlayerID)
		seen[row.PlayerID] = true
	}

	again, err := src.MatchBoxscore(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}
