package player

import "strings"

// Player is identified by id; Aliases only ever grow.
type Player struct {
	ID      string `validate:"required"`
	Name    string `validate:"required"`
	Aliases []string
}

// WithAlias returns the player with alias appended unless it equals the
// name or an existing alias (case-insensitive). The second result reports
// whether anything changed.
func (p Player) WithAlias(alias string) (Player, bool) {
	next, changed := appendAlias(p.Name, p.Aliases, alias)
	p.Aliases = next
	return p, changed
}

func appendAlias(name string, aliases []string, alias string) ([]string, bool) {
	alias = strings.TrimSpace(alias)
	if alias == "" || strings.EqualFold(alias, name) {
		return aliases, false
	}
	for _, existing := range aliases {
		if strings.EqualFold(existing, alias) {
			return aliases, false
		}
	}
	out := make([]string, 0, len(aliases)+1)
	out = append(out, aliases...)
	return append(out, alias), true
}
