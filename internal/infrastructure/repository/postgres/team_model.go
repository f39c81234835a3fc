package postgres

import (
	"time"

	"github.com/lib/pq"
)

type teamTableModel struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Aliases   pq.StringArray `db:"aliases"`
	CreatedAt time.Time      `db:"created_at"`
}

type teamInsertModel struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	Aliases pq.StringArray `db:"aliases"`
}

type playerTableModel struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Aliases   pq.StringArray `db:"aliases"`
	CreatedAt time.Time      `db:"created_at"`
}

type playerInsertModel struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	Aliases pq.StringArray `db:"aliases"`
}

func stringArray(v []string) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(v)
}
