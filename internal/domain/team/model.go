package team

import "strings"

// Team is identified by id; Aliases only ever grow.
type Team struct {
	ID      string `validate:"required"`
	Name    string `validate:"required"`
	Aliases []string
}

// WithAlias appends alias unless it matches the name or an existing alias.
func (t Team) WithAlias(alias string) (Team, bool) {
	alias = strings.TrimSpace(alias)
	if alias == "" || strings.EqualFold(alias, t.Name) {
		return t, false
	}
	for _, existing := range t.Aliases {
		if strings.EqualFold(existing, alias) {
			return t, false
		}
	}
	aliases := make([]string, 0, len(t.Aliases)+1)
	aliases = append(aliases, t.Aliases...)
	t.Aliases = append(aliases, alias)
	return t, true
}
