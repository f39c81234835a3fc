package season

import (
	"strconv"
	"strings"
)

// Season is derived from league rows; seasonId values look like "2023-24"
// or a plain year.
type Season struct {
	ID     string `validate:"required"`
	Year   int    `validate:"gte=0"`
	LigaID string
}

// YearOf parses the leading year of a season id, returning 0 when absent.
func YearOf(seasonID string) int {
	head := strings.TrimSpace(seasonID)
	if i := strings.IndexAny(head, "-/"); i > 0 {
		head = head[:i]
	}
	year, err := strconv.Atoi(head)
	if err != nil || year < 1900 {
		return 0
	}
	return year
}
