package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SyntheticPrefix marks identifiers minted locally because the source omitted one.
const SyntheticPrefix = "synthetic-"

// Generator creates identifiers for entities the federation source did not key.
type Generator interface {
	NewID(kind string) (string, error)
}

// TimeOrderedGenerator issues UUIDv7 identifiers: a millisecond timestamp plus a random tail.
type TimeOrderedGenerator struct{}

func NewTimeOrderedGenerator() *TimeOrderedGenerator {
	return &TimeOrderedGenerator{}
}

func (g *TimeOrderedGenerator) NewID(kind string) (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}

	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "entity"
	}
	return SyntheticPrefix + kind + "-" + v.String(), nil
}

// IsSynthetic reports whether value was produced by a Generator in this package.
func IsSynthetic(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), SyntheticPrefix)
}
