package postgres

import (
	"database/sql"
	"time"
)

type seasonStatTableModel struct {
	ID            int64     `db:"id"`
	PlayerID      string    `db:"player_id"`
	PlayerName    string    `db:"player_name"`
	SeasonID      string    `db:"season_id"`
	Points        int       `db:"points"`
	Games         int       `db:"games"`
	PointsPerGame float64   `db:"points_per_game"`
	ThreePm       int       `db:"three_pm"`
	ThreePa       int       `db:"three_pa"`
	ThreePct      float64   `db:"three_pct"`
	Ftm           int       `db:"ftm"`
	Fta           int       `db:"fta"`
	FtPct         float64   `db:"ft_pct"`
	Source        string    `db:"source"`
	ScrapedAt     time.Time `db:"scraped_at"`
	Derived       bool      `db:"derived"`
	CreatedAt     time.Time `db:"created_at"`
}

type seasonStatInsertModel struct {
	PlayerID      string    `db:"player_id"`
	PlayerName    string    `db:"player_name"`
	SeasonID      string    `db:"season_id"`
	Points        int       `db:"points"`
	Games         int       `db:"games"`
	PointsPerGame float64   `db:"points_per_game"`
	ThreePm       int       `db:"three_pm"`
	ThreePa       int       `db:"three_pa"`
	ThreePct      float64   `db:"three_pct"`
	Ftm           int       `db:"ftm"`
	Fta           int       `db:"fta"`
	FtPct         float64   `db:"ft_pct"`
	Source        string    `db:"source"`
	ScrapedAt     time.Time `db:"scraped_at"`
	Derived       bool      `db:"derived"`
}

type qaIssueTableModel struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	MatchID     string    `db:"match_id"`
	SeasonID    string    `db:"season_id"`
	LeagueID    string    `db:"league_id"`
	SessionID   string    `db:"session_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type qaIssueInsertModel struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	MatchID     string    `db:"match_id"`
	SeasonID    string    `db:"season_id"`
	LeagueID    string    `db:"league_id"`
	SessionID   string    `db:"session_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

type crawlSessionTableModel struct {
	ID                string       `db:"id"`
	Name              string       `db:"name"`
	StartedAt         time.Time    `db:"started_at"`
	FinishedAt        sql.NullTime `db:"finished_at"`
	TotalRequests     int          `db:"total_requests"`
	Successful        int          `db:"successful"`
	Failed            int          `db:"failed"`
	LeaguesDiscovered int          `db:"leagues_discovered"`
	Status            string       `db:"status"`
}

type crawlLogTableModel struct {
	ID             string    `db:"id"`
	SessionID      string    `db:"session_id"`
	LoggedAt       time.Time `db:"logged_at"`
	Level          string    `db:"level"`
	Message        string    `db:"message"`
	URL            string    `db:"url"`
	Status         int       `db:"status"`
	ResponseTimeMs int64     `db:"response_time_ms"`
	ResponseBytes  int       `db:"response_bytes"`
	LeagueID       string    `db:"league_id"`
}
