package boxscore

import (
	"strings"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
)

// Row is one player's line in one match.
type Row struct {
	ID         string
	MatchID    string `validate:"required"`
	TeamID     string `validate:"required"`
	PlayerID   string
	PlayerName string `validate:"required"`
	Pts        int    `validate:"gte=0"`
	ThreePm    int    `validate:"gte=0"`
	ThreePa    int    `validate:"gte=0"`
	Ftm        int    `validate:"gte=0"`
	Fta        int    `validate:"gte=0"`
	Provenance provenance.Provenance
}

// Key is the natural key used for upserts. Rows without a player id fall
// back to the lowercased player name.
type Key struct {
	MatchID   string
	TeamID    string
	PlayerKey string
}

func (r Row) Key() Key {
	player := r.PlayerID
	if player == "" {
		player = "name:" + strings.ToLower(strings.TrimSpace(r.PlayerName))
	}
	return Key{MatchID: r.MatchID, TeamID: r.TeamID, PlayerKey: player}
}
