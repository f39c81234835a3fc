// Package teammatch recognises teams that belong to the tracked club and
// extracts their squad level ("BG Litzendorf 2" is the second squad).
package teammatch

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultClubName = "BG Litzendorf"
	minLevel        = 1
	maxLevel        = 3
)

var DefaultAbbreviations = []string{"BGL"}

type Config struct {
	ClubName      string
	Abbreviations []string
}

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	patterns []*regexp.Regexp
}

func Default() *Matcher {
	return New(Config{ClubName: DefaultClubName, Abbreviations: DefaultAbbreviations})
}

// New compiles the recognition patterns: the club name tokens in order,
// the tokens reversed, and each abbreviation as a whole word. Every pattern
// captures an optional digit run that follows it.
func New(cfg Config) *Matcher {
	tokens := strings.Fields(strings.ToLower(cfg.ClubName))
	m := &Matcher{}
	if len(tokens) > 0 {
		m.patterns = append(m.patterns, compile(tokens))
		if len(tokens) > 1 {
			reversed := make([]string, len(tokens))
			for i, tok := range tokens {
				reversed[len(tokens)-1-i] = tok
			}
			m.patterns = append(m.patterns, compile(reversed))
		}
	}
	for _, abbr := range cfg.Abbreviations {
		abbr = strings.ToLower(strings.TrimSpace(abbr))
		if abbr == "" {
			continue
		}
		m.patterns = append(m.patterns, compile([]string{abbr}))
	}
	return m
}

func compile(tokens []string) *regexp.Regexp {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(quoted, `[\s\-_.]*`) + `[\s\-_.]*(\d+)?\b`)
}

func (m *Matcher) IsTracked(name string) bool {
	_, ok := m.SquadLevel(name)
	return ok
}

// SquadLevel returns the squad level for a tracked team. A digit outside
// 1..3, or no digit at all, yields level 1. Untracked names return (0, false).
func (m *Matcher) SquadLevel(name string) (int, bool) {
	if m == nil || strings.TrimSpace(name) == "" {
		return 0, false
	}
	matched := false
	for _, p := range m.patterns {
		sub := p.FindStringSubmatch(name)
		if sub == nil {
			continue
		}
		matched = true
		if sub[1] == "" {
			continue
		}
		if level, err := strconv.Atoi(sub[1]); err == nil && level >= minLevel && level <= maxLevel {
			return level, true
		}
	}
	if !matched {
		return 0, false
	}
	return minLevel, true
}

// AnyTracked reports whether any of the names is tracked.
func (m *Matcher) AnyTracked(names ...string) bool {
	for _, name := range names {
		if m.IsTracked(name) {
			return true
		}
	}
	return false
}
