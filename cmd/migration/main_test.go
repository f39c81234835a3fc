package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  []int
	targets []uint
	version uint
	dirty   bool
	versErr error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.versErr }

func (f *fakeMigrator) Force(version int) error {
	f.forced = append(f.forced, version)
	return nil
}

func (f *fakeMigrator) Migrate(version uint) error {
	f.targets = append(f.targets, version)
	return migrate.ErrNoChange
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	t.Run("up tolerates no change", func(t *testing.T) {
		m := &fakeMigrator{upErr: migrate.ErrNoChange}
		msg, err := runCommand(m, "UP", nil)
		require.NoError(t, err)
		assert.Equal(t, "migrations applied", msg)
	})

	t.Run("up surfaces failures", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := runCommand(&fakeMigrator{upErr: boom}, "up", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("down defaults to one step", func(t *testing.T) {
		m := &fakeMigrator{}
		_, err := runCommand(m, "down", nil)
		require.NoError(t, err)
		_, err = runCommand(m, "down", []string{"3"})
		require.NoError(t, err)
		assert.Equal(t, []int{-1, -3}, m.steps)
	})

	t.Run("down rejects non positive steps", func(t *testing.T) {
		_, err := runCommand(&fakeMigrator{}, "down", []string{"0"})
		assert.Error(t, err)
	})

	t.Run("version without migrations", func(t *testing.T) {
		msg, err := runCommand(&fakeMigrator{versErr: migrate.ErrNilVersion}, "version", nil)
		require.NoError(t, err)
		assert.Equal(t, "version: none, dirty: false", msg)
	})

	t.Run("version reports dirty state", func(t *testing.T) {
		msg, err := runCommand(&fakeMigrator{version: 1, dirty: true}, "version", nil)
		require.NoError(t, err)
		assert.Equal(t, "version: 1, dirty: true", msg)
	})

	t.Run("force and goto", func(t *testing.T) {
		m := &fakeMigrator{}
		_, err := runCommand(m, "force", []string{"1"})
		require.NoError(t, err)
		_, err = runCommand(m, "goto", []string{"1"})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, m.forced)
		assert.Equal(t, []uint{1}, m.targets)

		_, err = runCommand(m, "force", nil)
		assert.Error(t, err)
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := runCommand(&fakeMigrator{}, "sideways", nil)
		assert.ErrorIs(t, err, errUsage)
	})
}

func TestNormalizeDBURL(t *testing.T) {
	t.Parallel()

	got := normalizeDBURL("postgres://u:p@localhost:5432/hoopstats?sslmode=disable", true)
	assert.Contains(t, got, "disable_prepared_binary_result=yes")

	in := "postgres://u:p@localhost:5432/hoopstats?disable_prepared_binary_result=no"
	assert.Equal(t, in, normalizeDBURL(in, true))
	assert.Equal(t, "host=localhost dbname=hoopstats", normalizeDBURL("host=localhost dbname=hoopstats", true))
}
