package qa

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
)

var base = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func ids(issues []qaissue.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.ID)
	}
	return out
}

func TestSynthesize_SessionRules(t *testing.T) {
	sessions := []crawl.Session{
		{ID: "s1", Name: "empty", StartedAt: base, TotalRequests: 20, Successful: 20},
		{ID: "s2", Name: "flaky", StartedAt: base.Add(time.Hour), TotalRequests: 100, Successful: 90, Failed: 10, LeaguesDiscovered: 4},
		{ID: "s3", Name: "down", StartedAt: base.Add(2 * time.Hour), TotalRequests: 11, Failed: 11},
		{ID: "s4", Name: "fine", StartedAt: base.Add(3 * time.Hour), TotalRequests: 100, Successful: 97, Failed: 3, LeaguesDiscovered: 2},
	}

	issues := SynthesizeTelemetryIssues(sessions, nil, DefaultThresholds())

	assert.ElementsMatch(t, []string{
		"no-discoveries-s1",
		"high-error-s2",
		"no-discoveries-s3",
		"high-error-s3",
		"zero-success-s3",
	}, ids(issues))
	for _, issue := range issues {
		assert.Equal(t, qaissue.StatusOpen, issue.Status)
		assert.NotEmpty(t, issue.SessionID)
	}
	assert.Equal(t, "s3", issues[0].SessionID, "newest first")
}

func TestSynthesize_LogRules(t *testing.T) {
	sessions := []crawl.Session{{ID: "s9", StartedAt: base, TotalRequests: 5, Successful: 5, LeaguesDiscovered: 1}}

	var logs []crawl.LogEntry
	add := func(league string, ms int64, bytes int) {
		logs = append(logs, crawl.LogEntry{
			SessionID:      "s9",
			Timestamp:      base.Add(time.Duration(len(logs)) * time.Second),
			LeagueID:       league,
			ResponseTimeMs: ms,
			ResponseBytes:  bytes,
			Message:        fmt.Sprintf("GET x -> 200: %d bytes", bytes),
		})
	}
	for _, ms := range []int64{16000, 18000, 23000} {
		add("slow", ms, 4000)
	}
	for _, ms := range []int64{1000, 1000, 1000, 15000, 16000} {
		add("jumpy", ms, 4000)
	}
	add("quick", 200, 4000)

	issues := SynthesizeTelemetryIssues(sessions, logs, DefaultThresholds())
	got := ids(issues)

	assert.Contains(t, got, "slow-responses-s9")
	assert.Contains(t, got, "extreme-timeouts-s9")
	assert.Contains(t, got, "slow-league-slow")
	assert.Contains(t, got, "variance-league-jumpy")
	assert.NotContains(t, got, "slow-league-quick")
	assert.NotContains(t, got, "empty-responses-s9")

	for _, issue := range issues {
		if issue.ID == "slow-league-slow" {
			assert.Equal(t, "slow", issue.LeagueID)
			assert.Equal(t, qaissue.TypeFederationAPI, issue.Type)
		}
	}
}

func TestSynthesize_EmptyResponses(t *testing.T) {
	logs := make([]crawl.LogEntry, 0, 101)
	for i := 0; i < 101; i++ {
		msg := "GET x -> 200: 316 bytes in 80ms"
		if i%2 == 0 {
			msg = "GET x -> 200: 296 bytes in 80ms"
		}
		logs = append(logs, crawl.LogEntry{SessionID: "s1", Timestamp: base, Message: msg})
	}

	issues := SynthesizeTelemetryIssues(nil, logs, DefaultThresholds())
	require.Len(t, issues, 1)
	assert.Equal(t, "empty-responses-s1", issues[0].ID)
	assert.Equal(t, qaissue.TypeSeasonDetection, issues[0].Type)

	issues = SynthesizeTelemetryIssues(nil, logs[:100], DefaultThresholds())
	assert.Empty(t, issues)
}

func TestSynthesize_VarianceCappedAtThreeLeagues(t *testing.T) {
	var logs []crawl.LogEntry
	for l := 0; l < 5; l++ {
		for _, ms := range []int64{100, 100, 100, 14000, 14000} {
			logs = append(logs, crawl.LogEntry{SessionID: "s1", Timestamp: base, LeagueID: fmt.Sprintf("L%d", l), ResponseTimeMs: ms})
		}
	}

	issues := SynthesizeTelemetryIssues(nil, logs, DefaultThresholds())
	variance := 0
	for _, issue := range issues {
		if issue.Type == qaissue.TypeResponseVariance {
			variance++
		}
	}
	assert.Equal(t, 3, variance)
}

func TestSynthesize_CapsAtTen(t *testing.T) {
	var sessions []crawl.Session
	for i := 0; i < 8; i++ {
		sessions = append(sessions, crawl.Session{
			ID:            fmt.Sprintf("s%d", i),
			StartedAt:     base.Add(time.Duration(i) * time.Minute),
			TotalRequests: 50,
			Failed:        50,
		})
	}

	issues := SynthesizeTelemetryIssues(sessions, nil, DefaultThresholds())
	require.Len(t, issues, 10)
	assert.Equal(t, "s7", issues[0].SessionID)
	for i := 1; i < len(issues); i++ {
		assert.False(t, issues[i].CreatedAt.After(issues[i-1].CreatedAt))
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	sessions := []crawl.Session{{ID: "s1", StartedAt: base, TotalRequests: 30, Failed: 30}}
	logs := []crawl.LogEntry{{SessionID: "s1", Timestamp: base, ResponseTimeMs: 30000}}

	first := SynthesizeTelemetryIssues(sessions, logs, DefaultThresholds())
	second := SynthesizeTelemetryIssues(sessions, logs, DefaultThresholds())
	assert.Equal(t, first, second)
}
