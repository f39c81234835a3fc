package crawl

import (
	"fmt"
	"sync"
	"time"
)

// Attempt is a single HTTP exchange as seen by the fetcher.
type Attempt struct {
	URL        string
	LeagueID   string
	StatusCode int
	Bytes      int
	Duration   time.Duration
	Err        error
	At         time.Time
}

// Recorder accumulates one session's counters and log entries. It is safe
// for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	session Session
	logs    []LogEntry
	now     func() time.Time
}

func NewRecorder(sessionID, name string, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		session: Session{
			ID:        sessionID,
			Name:      name,
			StartedAt: now().UTC(),
			Status:    SessionRunning,
		},
		now: now,
	}
}

func (r *Recorder) Record(a Attempt) {
	if r == nil {
		return
	}
	at := a.At
	if at.IsZero() {
		at = r.now()
	}

	entry := LogEntry{
		Timestamp:      at.UTC(),
		URL:            a.URL,
		Status:         a.StatusCode,
		ResponseTimeMs: a.Duration.Milliseconds(),
		ResponseBytes:  a.Bytes,
		LeagueID:       a.LeagueID,
	}
	success := a.Err == nil && a.StatusCode >= 200 && a.StatusCode < 300
	switch {
	case success:
		entry.Level = LevelInfo
		entry.Message = fmt.Sprintf("GET %s -> %d: %d bytes in %dms", a.URL, a.StatusCode, a.Bytes, entry.ResponseTimeMs)
	case a.Err != nil:
		entry.Level = LevelError
		entry.Message = fmt.Sprintf("GET %s failed after %dms: %v", a.URL, entry.ResponseTimeMs, a.Err)
	default:
		entry.Level = LevelWarn
		entry.Message = fmt.Sprintf("GET %s -> %d: %d bytes in %dms", a.URL, a.StatusCode, a.Bytes, entry.ResponseTimeMs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.TotalRequests++
	if success {
		r.session.Successful++
	} else {
		r.session.Failed++
	}
	entry.SessionID = r.session.ID
	entry.ID = fmt.Sprintf("%s-%05d", r.session.ID, len(r.logs)+1)
	r.logs = append(r.logs, entry)
}

func (r *Recorder) SetLeaguesDiscovered(n int) {
	r.mu.Lock()
	r.session.LeaguesDiscovered = n
	r.mu.Unlock()
}

// Finish closes the session with the given outcome.
func (r *Recorder) Finish(err error) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.FinishedAt = r.now().UTC()
	r.session.Status = SessionCompleted
	if err != nil {
		r.session.Status = SessionFailed
	}
	return r.session
}

func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Logs returns a copy of the recorded entries in recording order.
func (r *Recorder) Logs() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.logs...)
}
