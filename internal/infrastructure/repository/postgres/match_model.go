package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID          string         `db:"id"`
	MatchNo     int            `db:"match_no"`
	SeasonID    string         `db:"season_id"`
	LigaID      string         `db:"liga_id"`
	MatchDate   sql.NullTime   `db:"match_date"`
	HomeTeamID  string         `db:"home_team_id"`
	GuestTeamID string         `db:"guest_team_id"`
	Result      sql.NullString `db:"result"`
	Status      string         `db:"status"`
	Synthetic   bool           `db:"synthetic"`
	Source      string         `db:"source"`
	ScrapedAt   time.Time      `db:"scraped_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type matchInsertModel struct {
	ID          string         `db:"id"`
	MatchNo     int            `db:"match_no"`
	SeasonID    string         `db:"season_id"`
	LigaID      string         `db:"liga_id"`
	MatchDate   sql.NullTime   `db:"match_date"`
	HomeTeamID  string         `db:"home_team_id"`
	GuestTeamID string         `db:"guest_team_id"`
	Result      sql.NullString `db:"result"`
	Status      string         `db:"status"`
	Synthetic   bool           `db:"synthetic"`
	Source      string         `db:"source"`
	ScrapedAt   time.Time      `db:"scraped_at"`
}

type boxscoreTableModel struct {
	ID         string    `db:"id"`
	MatchID    string    `db:"match_id"`
	TeamID     string    `db:"team_id"`
	PlayerID   string    `db:"player_id"`
	PlayerKey  string    `db:"player_key"`
	PlayerName string    `db:"player_name"`
	Pts        int       `db:"pts"`
	ThreePm    int       `db:"three_pm"`
	ThreePa    int       `db:"three_pa"`
	Ftm        int       `db:"ftm"`
	Fta        int       `db:"fta"`
	Source     string    `db:"source"`
	ScrapedAt  time.Time `db:"scraped_at"`
	CreatedAt  time.Time `db:"created_at"`
}

type boxscoreInsertModel struct {
	ID         string    `db:"id"`
	MatchID    string    `db:"match_id"`
	TeamID     string    `db:"team_id"`
	PlayerID   string    `db:"player_id"`
	PlayerKey  string    `db:"player_key"`
	PlayerName string    `db:"player_name"`
	Pts        int       `db:"pts"`
	ThreePm    int       `db:"three_pm"`
	ThreePa    int       `db:"three_pa"`
	Ftm        int       `db:"ftm"`
	Fta        int       `db:"fta"`
	Source     string    `db:"source"`
	ScrapedAt  time.Time `db:"scraped_at"`
}
