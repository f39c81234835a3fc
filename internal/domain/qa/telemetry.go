package qa

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
)

// Thresholds configures telemetry issue synthesis. Durations are in milliseconds.
type Thresholds struct {
	MinRequestsForSessionChecks int
	MaxFailureRate              float64
	SlowResponseMs              int64
	ExtremeTimeoutMs            int64
	SlowLeagueAvgMs             float64
	SlowLeagueMinSamples        int
	VarianceStdDevMs            float64
	VarianceMinSamples          int
	VarianceMaxLeagues          int
	MinimalResponseBytes        int
	MinimalResponseMarkers      []string
	MinimalResponseMinCount     int
	MaxIssues                   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRequestsForSessionChecks: 10,
		MaxFailureRate:              0.05,
		SlowResponseMs:              17000,
		ExtremeTimeoutMs:            22000,
		SlowLeagueAvgMs:             15000,
		SlowLeagueMinSamples:        3,
		VarianceStdDevMs:            5000,
		VarianceMinSamples:          5,
		VarianceMaxLeagues:          3,
		MinimalResponseBytes:        316,
		MinimalResponseMarkers:      []string{"316 bytes", "296 bytes"},
		MinimalResponseMinCount:     100,
		MaxIssues:                   10,
	}
}

// SynthesizeTelemetryIssues derives open issues from crawl sessions and
// request logs. The result is sorted newest first and capped at MaxIssues.
func SynthesizeTelemetryIssues(sessions []crawl.Session, logs []crawl.LogEntry, th Thresholds) []qaissue.Issue {
	issues := make([]qaissue.Issue, 0)
	for _, s := range sessions {
		issues = append(issues, sessionIssues(s, th)...)
	}
	if len(logs) > 0 {
		issues = append(issues, logIssues(sessions, logs, th)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if !issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].CreatedAt.After(issues[j].CreatedAt)
		}
		return issues[i].ID < issues[j].ID
	})
	if th.MaxIssues > 0 && len(issues) > th.MaxIssues {
		issues = issues[:th.MaxIssues]
	}
	return issues
}

func sessionIssues(s crawl.Session, th Thresholds) []qaissue.Issue {
	at := s.FinishedAt
	if at.IsZero() {
		at = s.StartedAt
	}
	newIssue := func(prefix string, typ qaissue.Type, desc string) qaissue.Issue {
		return qaissue.Issue{
			ID:          prefix + "-" + s.ID,
			Type:        typ,
			SessionID:   s.ID,
			Description: desc,
			Status:      qaissue.StatusOpen,
			CreatedAt:   at,
		}
	}

	var out []qaissue.Issue
	if s.TotalRequests > th.MinRequestsForSessionChecks && s.LeaguesDiscovered == 0 {
		out = append(out, newIssue("no-discoveries", qaissue.TypeDataQuality,
			fmt.Sprintf("Session %q made %d requests but discovered 0 active leagues", s.Name, s.TotalRequests)))
	}
	if s.Failed > 0 && s.FailureRate() > th.MaxFailureRate {
		out = append(out, newIssue("high-error", qaissue.TypeReliability,
			fmt.Sprintf("High error rate in session %q: %.1f%% failures (%d/%d)", s.Name, s.FailureRate()*100, s.Failed, s.TotalRequests)))
	}
	if s.TotalRequests > th.MinRequestsForSessionChecks && s.Successful == 0 {
		out = append(out, newIssue("zero-success", qaissue.TypeFederationAPI,
			fmt.Sprintf("Complete failure: session %q had 0 successful requests out of %d attempts", s.Name, s.TotalRequests)))
	}
	return out
}

type leagueTimes struct {
	id     string
	times  []float64
	newest time.Time
}

func logIssues(sessions []crawl.Session, logs []crawl.LogEntry, th Thresholds) []qaissue.Issue {
	scope := windowKey(sessions, logs)
	var out []qaissue.Issue

	var slowCount, extremeCount, minimalCount int
	var slowTotal int64
	var slowAt, extremeAt, minimalAt time.Time
	var leagues []*leagueTimes
	byLeague := make(map[string]*leagueTimes)

	for _, l := range logs {
		if l.ResponseTimeMs > th.SlowResponseMs {
			slowCount++
			slowTotal += l.ResponseTimeMs
			slowAt = latest(slowAt, l.Timestamp)
		}
		if l.ResponseTimeMs > th.ExtremeTimeoutMs {
			extremeCount++
			extremeAt = latest(extremeAt, l.Timestamp)
		}
		if isMinimalResponse(l, th) {
			minimalCount++
			minimalAt = latest(minimalAt, l.Timestamp)
		}
		if l.LeagueID != "" && l.ResponseTimeMs > 0 {
			lt, ok := byLeague[l.LeagueID]
			if !ok {
				lt = &leagueTimes{id: l.LeagueID}
				byLeague[l.LeagueID] = lt
				leagues = append(leagues, lt)
			}
			lt.times = append(lt.times, float64(l.ResponseTimeMs))
			lt.newest = latest(lt.newest, l.Timestamp)
		}
	}

	if slowCount > 0 {
		avg := float64(slowTotal) / float64(slowCount) / 1000
		out = append(out, aggregateIssue("slow-responses-"+scope, qaissue.TypePerformance, slowAt,
			fmt.Sprintf("%d requests exceeded %ds (avg: %.1fs) - federation server performance issue", slowCount, th.SlowResponseMs/1000, avg)))
	}

	for _, lt := range leagues {
		if len(lt.times) < th.SlowLeagueMinSamples {
			continue
		}
		mean, _ := MeanStdDev(lt.times)
		if mean > th.SlowLeagueAvgMs {
			issue := aggregateIssue("slow-league-"+lt.id, qaissue.TypeFederationAPI, lt.newest,
				fmt.Sprintf("League %s consistently slow: %.1fs average response time over %d requests", lt.id, mean/1000, len(lt.times)))
			issue.LeagueID = lt.id
			out = append(out, issue)
		}
	}

	if extremeCount > 0 {
		out = append(out, aggregateIssue("extreme-timeouts-"+scope, qaissue.TypeFederationTimeout, extremeAt,
			fmt.Sprintf("%d requests experienced extreme delays (>%ds) - federation server instability", extremeCount, th.ExtremeTimeoutMs/1000)))
	}

	reported := 0
	for _, lt := range leagues {
		if len(lt.times) < th.VarianceMinSamples {
			continue
		}
		mean, stdDev := MeanStdDev(lt.times)
		if stdDev <= th.VarianceStdDevMs {
			continue
		}
		reported++
		if reported > th.VarianceMaxLeagues {
			break
		}
		issue := aggregateIssue("variance-league-"+lt.id, qaissue.TypeResponseVariance, lt.newest,
			fmt.Sprintf("League %s response time highly variable: %.1fs ±%.1fs (unstable)", lt.id, mean/1000, stdDev/1000))
		issue.LeagueID = lt.id
		out = append(out, issue)
	}

	if minimalCount > th.MinimalResponseMinCount {
		out = append(out, aggregateIssue("empty-responses-"+scope, qaissue.TypeSeasonDetection, minimalAt,
			fmt.Sprintf("%d requests returned minimal data (<= %d bytes) - likely off-season or no active competitions", minimalCount, th.MinimalResponseBytes)))
	}

	return out
}

func aggregateIssue(id string, typ qaissue.Type, at time.Time, desc string) qaissue.Issue {
	return qaissue.Issue{
		ID:          id,
		Type:        typ,
		Description: desc,
		Status:      qaissue.StatusOpen,
		CreatedAt:   at,
	}
}

func isMinimalResponse(l crawl.LogEntry, th Thresholds) bool {
	if l.ResponseBytes > 0 && l.ResponseBytes <= th.MinimalResponseBytes {
		return true
	}
	for _, marker := range th.MinimalResponseMarkers {
		if marker != "" && strings.Contains(l.Message, marker) {
			return true
		}
	}
	return false
}

// windowKey names the analysed window after its newest session so that
// aggregate issue ids are stable across repeated analysis of the same data.
func windowKey(sessions []crawl.Session, logs []crawl.LogEntry) string {
	var key string
	var newest time.Time
	for _, s := range sessions {
		if key == "" || s.StartedAt.After(newest) {
			key, newest = s.ID, s.StartedAt
		}
	}
	if key != "" {
		return key
	}
	for _, l := range logs {
		if l.SessionID != "" && (key == "" || l.Timestamp.After(newest)) {
			key, newest = l.SessionID, l.Timestamp
		}
	}
	if key == "" {
		return "unscoped"
	}
	return key
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
