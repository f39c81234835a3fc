package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTimeOrderedGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := NewTimeOrderedGenerator()
	first, err := gen.NewID("League")
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID("league")
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct ids, got %s twice", first)
	}
	if !strings.HasPrefix(first, "synthetic-league-") {
		t.Fatalf("unexpected prefix: %s", first)
	}
	if !IsSynthetic(first) {
		t.Fatalf("expected %s to be flagged synthetic", first)
	}

	parsed, err := uuid.Parse(strings.TrimPrefix(first, "synthetic-league-"))
	if err != nil {
		t.Fatalf("parse uuid tail: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected uuid v7, got v%d", parsed.Version())
	}
}

func TestIsSynthetic(t *testing.T) {
	t.Parallel()

	if IsSynthetic("47955") {
		t.Fatalf("source ids must not be flagged synthetic")
	}
	if !IsSynthetic(" synthetic-match-abc") {
		t.Fatalf("expected trimmed synthetic id to be recognised")
	}
}
