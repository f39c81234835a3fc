package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/store"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505 through wrapping", func(t *testing.T) {
		err := fmt.Errorf("insert league: %w", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
		assert.True(t, isUniqueViolation(err))
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	})

	t.Run("ignores plain errors", func(t *testing.T) {
		assert.False(t, isUniqueViolation(errors.New("pq: duplicate key")))
	})
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(sql.ErrNoRows))
	assert.True(t, isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestInsertErrMapsConflicts(t *testing.T) {
	assert.NoError(t, insertErr("league", nil))

	for name, tc := range map[string]struct {
		err      error
		conflict bool
	}{
		"no returned row":  {err: sql.ErrNoRows, conflict: true},
		"unique violation": {err: &pq.Error{Code: uniqueViolation}, conflict: true},
		"other failure":    {err: errors.New("connection reset"), conflict: false},
	} {
		t.Run(name, func(t *testing.T) {
			err := insertErr("league 1/2023-24", tc.err)
			assert.Error(t, err)
			assert.Equal(t, tc.conflict, errors.Is(err, store.ErrConflict))
			assert.Contains(t, err.Error(), "league 1/2023-24")
		})
	}
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullTime(time.Time{}).Valid)
	at := time.Date(2023, 10, 15, 19, 0, 0, 0, time.FixedZone("CET", 3600))
	nt := nullTime(at)
	assert.True(t, nt.Valid)
	assert.Equal(t, time.UTC, nt.Time.Location())
	assert.True(t, timeOf(nt).Equal(at))
	assert.True(t, timeOf(sql.NullTime{}).IsZero())

	assert.False(t, nullString("").Valid)
	assert.Equal(t, "78:70", nullString("78:70").String)
}

func TestProvenanceAndAliases(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := provenanceOf("mock-data", at)
	assert.True(t, p.IsMock())
	assert.Equal(t, provenance.SourceMock, p.Source)

	assert.Nil(t, aliasesOf(nil))
	assert.Equal(t, []string{"BGL 1"}, aliasesOf(pq.StringArray{"BGL 1"}))
	assert.Equal(t, pq.StringArray{}, stringArray(nil))
}
