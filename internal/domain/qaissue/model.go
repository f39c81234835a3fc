package qaissue

import "time"

type Type string

const (
	TypeOutlier               Type = "outlier"
	TypeSeasonTotalMismatch   Type = "season_total_mismatch"
	TypeDuplicateMatch        Type = "duplicate_match"
	TypeShootingInconsistency Type = "shooting_inconsistency"

	TypeDataQuality       Type = "data_quality"
	TypeReliability       Type = "reliability"
	TypeFederationAPI     Type = "federation_api"
	TypePerformance       Type = "performance"
	TypeFederationTimeout Type = "federation_timeout"
	TypeResponseVariance  Type = "response_variance"
	TypeSeasonDetection   Type = "season_detection"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusConfirmed Status = "confirmed"
	StatusIgnored   Status = "ignored"
)

// IsTerminal reports whether an operator has already decided the issue.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusIgnored
}

// Issue is a data-quality finding. IDs are deterministic per rule so that
// repeated runs overwrite rather than duplicate.
type Issue struct {
	ID          string
	Type        Type
	MatchID     string
	SeasonID    string
	LeagueID    string
	SessionID   string
	Description string
	Status      Status
	CreatedAt   time.Time
}
