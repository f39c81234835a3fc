// Package crawl models crawl telemetry: one Session per pipeline run and one
// LogEntry per HTTP attempt made against the federation source.
package crawl

import "time"

type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

type Session struct {
	ID                string
	Name              string
	StartedAt         time.Time
	FinishedAt        time.Time
	TotalRequests     int
	Successful        int
	Failed            int
	LeaguesDiscovered int
	Status            SessionStatus
}

// FailureRate is Failed/TotalRequests, or 0 without requests.
func (s Session) FailureRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.TotalRequests)
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type LogEntry struct {
	ID             string
	SessionID      string
	Timestamp      time.Time
	Level          Level
	Message        string
	URL            string
	Status         int
	ResponseTimeMs int64
	ResponseBytes  int
	LeagueID       string
}
