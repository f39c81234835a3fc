package match

import (
	"strings"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusFinished  Status = "finished"
)

// ParseStatus maps raw source values to a status; unknown values are scheduled.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "finished", "final", "played", "done", "beendet":
		return StatusFinished
	default:
		return StatusScheduled
	}
}

type Match struct {
	ID          string `validate:"required"`
	MatchNo     int
	SeasonID    string `validate:"required"`
	LigaID      string `validate:"required"`
	Date        time.Time
	HomeTeamID  string `validate:"required"`
	GuestTeamID string `validate:"required,nefield=HomeTeamID"`
	Result      string
	Status      Status `validate:"oneof=scheduled finished"`
	Synthetic   bool
	Provenance  provenance.Provenance
}

func (m Match) IsFinished() bool {
	return m.Status == StatusFinished
}

// CanTransition reports whether a stored status may move to next.
// Status only advances scheduled -> finished.
func CanTransition(current, next Status) bool {
	return current == StatusScheduled && next == StatusFinished
}

// FallbackKey is the natural key used for duplicate detection when the
// source id is missing or unstable.
type FallbackKey struct {
	HomeTeamID  string
	GuestTeamID string
	Date        int64
	Result      string
}

func (m Match) FallbackKey() FallbackKey {
	return FallbackKey{
		HomeTeamID:  m.HomeTeamID,
		GuestTeamID: m.GuestTeamID,
		Date:        m.Date.UnixNano(),
		Result:      m.Result,
	}
}
