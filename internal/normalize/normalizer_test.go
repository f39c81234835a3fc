package normalize

import (
	"fmt"
	"math"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/platform/id"
)

var fixedNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type sequenceIDs struct{ n int }

func (s *sequenceIDs) NewID(kind string) (string, error) {
	s.n++
	return fmt.Sprintf("%s%s-%d", id.SyntheticPrefix, kind, s.n), nil
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var out any
	require.NoError(t, sonic.UnmarshalString(raw, &out))
	return out
}

func newNormalizer() *Normalizer {
	return New(&sequenceIDs{}, WithClock(func() time.Time { return fixedNow }))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		shape Shape
		items int
	}{
		{"array", `[{"id":1},{"id":2},3]`, ShapeArray, 2},
		{"leagues envelope", `{"leagues":[{"id":1}]}`, ShapeLeaguesEnvelope, 1},
		{"data envelope", `{"data":[{"id":1},{"id":2}]}`, ShapeDataEnvelope, 2},
		{"bare object", `{"ligaId":"1","name":"x"}`, ShapeObject, 1},
		{"data not a list", `{"data":"nope"}`, ShapeObject, 1},
		{"scalar", `42`, ShapeObject, 1},
		{"null", `null`, ShapeObject, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Classify(decode(t, tc.raw))
			assert.Equal(t, tc.shape, p.Shape)
			assert.Len(t, p.Items, tc.items)
		})
	}
}

func TestLeagues_AllShapesAgree(t *testing.T) {
	prov := provenance.New(provenance.SourceREST, fixedNow)
	entry := `{"ligaId":"47955","seasonId":"2023-24","name":"Bezirksliga Oberfranken","level":"BL","region":"Oberfranken"}`

	for _, raw := range []string{
		"[" + entry + "]",
		`{"leagues":[` + entry + `]}`,
		`{"data":[` + entry + `]}`,
		entry,
	} {
		leagues := newNormalizer().Leagues(decode(t, raw), prov)
		require.Len(t, leagues, 1, raw)
		assert.Equal(t, league.League{
			LigaID:     "47955",
			SeasonID:   "2023-24",
			Name:       "Bezirksliga Oberfranken",
			Level:      "BL",
			Region:     "Oberfranken",
			Provenance: prov,
		}, leagues[0])
	}
}

func TestLeagues_AliasesAndSyntheticIDs(t *testing.T) {
	raw := decode(t, `[
		{"id": 12345, "season": "2022-23", "title": "Kreisliga", "division": "KL", "area": "Bamberg"},
		{"name": "No Id League"},
		{}
	]`)

	leagues := newNormalizer().Leagues(raw, provenance.New(provenance.SourceREST, fixedNow))
	require.Len(t, leagues, 3)

	assert.Equal(t, "12345", leagues[0].LigaID)
	assert.Equal(t, "2022-23", leagues[0].SeasonID)
	assert.Equal(t, "Kreisliga", leagues[0].Name)
	assert.Equal(t, "KL", leagues[0].Level)
	assert.Equal(t, "Bamberg", leagues[0].Region)
	assert.False(t, leagues[0].Synthetic)

	assert.True(t, leagues[1].Synthetic)
	assert.True(t, id.IsSynthetic(leagues[1].LigaID))
	assert.Equal(t, DefaultSeasonID, leagues[1].SeasonID)

	assert.Equal(t, "Unknown League", leagues[2].Name)
	assert.NotEqual(t, leagues[1].LigaID, leagues[2].LigaID)
}

func TestDedupeSynthetic(t *testing.T) {
	mock := provenance.New(provenance.SourceREST, fixedNow)
	leagues := []league.League{
		{LigaID: "synthetic-league-1", SeasonID: "2023-24", Name: "Kreisliga", Synthetic: true, Provenance: mock},
		{LigaID: "synthetic-league-2", SeasonID: "2023-24", Name: "kreisliga ", Synthetic: true, Provenance: mock},
		{LigaID: "synthetic-league-3", SeasonID: "2022-23", Name: "Kreisliga", Synthetic: true, Provenance: mock},
		{LigaID: "100", SeasonID: "2023-24", Name: "Kreisliga", Provenance: mock},
		{LigaID: "100", SeasonID: "2023-24", Name: "Kreisliga", Provenance: mock},
	}

	out := DedupeSynthetic(leagues)
	require.Len(t, out, 4)
	assert.Equal(t, "synthetic-league-1", out[0].LigaID)
	assert.Equal(t, "synthetic-league-3", out[1].LigaID)
}

func TestMatches(t *testing.T) {
	raw := decode(t, `[
		{"matchId": 9001, "matchNo": "12", "date": "2023-10-15T18:00:00Z", "homeTeamId": "team-bgl1", "guestTeamId": "team-coburg", "result": "78:70", "status": "finished"},
		{"id": "9002", "number": 13, "gameDate": "2023-10-22", "homeTeam": {"id": "t-bam", "name": "BG Bamberg"}, "guestTeam": {"id": "t-bgl2", "name": "BG Litzendorf 2"}, "score": "60:61"},
		{"homeTeam": "TSG Bayreuth", "awayTeam": "TSV Coburg", "matchNo": "x"}
	]`)

	batch := newNormalizer().Matches(raw, "47955", "2023-24", provenance.New(provenance.SourceREST, fixedNow))
	require.Len(t, batch.Matches, 3)

	m := batch.Matches[0]
	assert.Equal(t, "9001", m.ID)
	assert.Equal(t, 12, m.MatchNo)
	assert.Equal(t, time.Date(2023, 10, 15, 18, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "team-bgl1", m.HomeTeamID)
	assert.Equal(t, match.StatusFinished, m.Status)
	assert.Equal(t, "47955", m.LigaID)
	assert.Equal(t, "2023-24", m.SeasonID)

	m = batch.Matches[1]
	assert.Equal(t, "9002", m.ID)
	assert.Equal(t, "t-bam", m.HomeTeamID)
	assert.Equal(t, "t-bgl2", m.GuestTeamID)
	assert.Equal(t, "60:61", m.Result)
	assert.Equal(t, match.StatusScheduled, m.Status)

	m = batch.Matches[2]
	assert.True(t, m.Synthetic)
	assert.Equal(t, 0, m.MatchNo)
	assert.Equal(t, fixedNow, m.Date)
	assert.Equal(t, "team-tsg-bayreuth", m.HomeTeamID)
	assert.Equal(t, "team-tsv-coburg", m.GuestTeamID)

	names := map[string]string{}
	for _, tm := range batch.Teams {
		names[tm.ID] = tm.Name
	}
	assert.Equal(t, map[string]string{
		"t-bam":             "BG Bamberg",
		"t-bgl2":            "BG Litzendorf 2",
		"team-tsg-bayreuth": "TSG Bayreuth",
		"team-tsv-coburg":   "TSV Coburg",
	}, names)
}

func TestMatches_SingleObjectAndEnvelope(t *testing.T) {
	n := newNormalizer()
	prov := provenance.New(provenance.SourceREST, fixedNow)

	single := n.Matches(decode(t, `{"matchId":"1","homeTeamId":"a","guestTeamId":"b"}`), "l", "s", prov)
	assert.Len(t, single.Matches, 1)

	wrapped := n.Matches(decode(t, `{"matches":[{"matchId":"1"},{"matchId":"2"}]}`), "l", "s", prov)
	assert.Len(t, wrapped.Matches, 2)
}

func TestBoxscore(t *testing.T) {
	raw := decode(t, `{
		"playerStats": {
			"team-bgl1": [
				{"playerId": "p1", "name": "Max Mustermann", "pts": "17", "3pm": 3, "3pa": "7", "ftm": 2, "fta": 2},
				{"playerName": "John Doe", "pts": "n/a", "threePm": 1, "threePa": 4, "ftm": -1},
				{"pts": 4}
			],
			"team-coburg": "not a list"
		}
	}`)

	rows := newNormalizer().Boxscore(raw, "9001", provenance.New(provenance.SourceREST, fixedNow))
	require.Len(t, rows, 2)

	assert.Equal(t, "p1", rows[0].PlayerID)
	assert.Equal(t, 17, rows[0].Pts)
	assert.Equal(t, 3, rows[0].ThreePm)
	assert.Equal(t, 7, rows[0].ThreePa)
	assert.Equal(t, "team-bgl1", rows[0].TeamID)
	assert.Equal(t, "9001", rows[0].MatchID)

	assert.Equal(t, "John Doe", rows[1].PlayerName)
	assert.Equal(t, 0, rows[1].Pts)
	assert.Equal(t, 0, rows[1].Ftm)
	assert.Equal(t, 1, rows[1].ThreePm)

	assert.Empty(t, newNormalizer().Boxscore(decode(t, `{"match": {}}`), "x", provenance.Provenance{}))
	assert.Empty(t, newNormalizer().Boxscore(decode(t, `[]`), "x", provenance.Provenance{}))
}

func TestSeasonFile(t *testing.T) {
	raw := decode(t, `{
		"season": 2019,
		"liga_ids": [{"liga_id": "47955", "name": "Bezirksoberliga"}, {"name": "missing id"}],
		"players": [
			{"name": "Max Mustermann", "col_2": "250", "col_3": "18", "col_4": "13.9", "col_5": "20", "col_6": "61", "col_7": "32,8", "col_8": "30", "col_9": "42", "col_10": "71.4"},
			{"name": "", "col_2": "10"},
			{"name": "John Doe"}
		]
	}`)

	imp, ok := newNormalizer().SeasonFile(raw, provenance.New(provenance.SourceImport, fixedNow))
	require.True(t, ok)
	assert.Equal(t, "2019", imp.SeasonID)
	require.Len(t, imp.Leagues, 1)
	assert.Equal(t, "47955", imp.Leagues[0].LigaID)
	assert.Equal(t, provenance.SourceImport, imp.Leagues[0].Provenance.Source)

	require.Len(t, imp.Stats, 2)
	s := imp.Stats[0]
	assert.Equal(t, 250, s.Points)
	assert.Equal(t, 18, s.Games)
	assert.Equal(t, 13.9, s.PointsPerGame)
	assert.Equal(t, 32.8, s.ThreePct)
	assert.Equal(t, 42, s.Fta)
	assert.Equal(t, 71.4, s.FtPct)
	assert.Zero(t, imp.Stats[1].Points)

	_, ok = newNormalizer().SeasonFile(decode(t, `{"players": []}`), provenance.Provenance{})
	assert.False(t, ok)
}

func TestSeasons(t *testing.T) {
	seasons := Seasons([]league.League{
		{LigaID: "a", SeasonID: "2023-24"},
		{LigaID: "b", SeasonID: "2023-24"},
		{LigaID: "c", SeasonID: "2022-23"},
	})
	require.Len(t, seasons, 2)
	assert.Equal(t, "a", seasons[0].LigaID)
	assert.Equal(t, 2023, seasons[0].Year)
	assert.Equal(t, 2022, seasons[1].Year)
}

func TestAsInt_OutOfRangeIsMissing(t *testing.T) {
	cases := map[string]struct {
		in   any
		want int
	}{
		"whole float":        {in: 12.0, want: 12},
		"truncated float":    {in: 7.9, want: 7},
		"negative float":     {in: -3.0, want: -3},
		"huge float":         {in: 1e300, want: 0},
		"huge negative":      {in: -1e300, want: 0},
		"two to the 63":      {in: math.Ldexp(1, 63), want: 0},
		"infinity":           {in: math.Inf(1), want: 0},
		"not a number":       {in: math.NaN(), want: 0},
		"numeric string":     {in: " 14 ", want: 14},
		"decimal comma":      {in: "3,5", want: 3},
		"huge string":        {in: "1e40", want: 0},
		"non numeric string": {in: "DNP", want: 0},
		"nil":                {in: nil, want: 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, asInt(tc.in))
		})
	}
}
