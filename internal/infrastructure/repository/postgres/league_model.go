package postgres

import "time"

type leagueTableModel struct {
	ID        int64     `db:"id"`
	LigaID    string    `db:"liga_id"`
	SeasonID  string    `db:"season_id"`
	Name      string    `db:"name"`
	Level     string    `db:"level"`
	Region    string    `db:"region"`
	Synthetic bool      `db:"synthetic"`
	DedupeKey string    `db:"dedupe_key"`
	Source    string    `db:"source"`
	ScrapedAt time.Time `db:"scraped_at"`
	CreatedAt time.Time `db:"created_at"`
}

type leagueInsertModel struct {
	LigaID    string    `db:"liga_id"`
	SeasonID  string    `db:"season_id"`
	Name      string    `db:"name"`
	Level     string    `db:"level"`
	Region    string    `db:"region"`
	Synthetic bool      `db:"synthetic"`
	DedupeKey string    `db:"dedupe_key"`
	Source    string    `db:"source"`
	ScrapedAt time.Time `db:"scraped_at"`
}

type seasonTableModel struct {
	ID        string    `db:"id"`
	Year      int       `db:"year"`
	LigaID    string    `db:"liga_id"`
	CreatedAt time.Time `db:"created_at"`
}

type seasonInsertModel struct {
	ID     string `db:"id"`
	Year   int    `db:"year"`
	LigaID string `db:"liga_id"`
}
