package league

import (
	"fmt"
	"strings"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
)

// League is one federation league in one season.
type League struct {
	LigaID     string `validate:"required"`
	SeasonID   string `validate:"required"`
	Name       string `validate:"required"`
	Level      string
	Region     string
	Synthetic  bool
	Provenance provenance.Provenance
}

// Key is the natural identity of a league row.
type Key struct {
	LigaID   string
	SeasonID string
}

func (l League) Key() Key {
	return Key{LigaID: l.LigaID, SeasonID: l.SeasonID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.LigaID, k.SeasonID)
}

// DedupeKey identifies synthetic leagues, whose LigaID is regenerated on
// every run and therefore cannot be trusted as identity.
func (l League) DedupeKey() string {
	return strings.ToLower(strings.TrimSpace(l.Name)) + "|" + l.SeasonID + "|" + string(l.Provenance.Source)
}
