package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/usecase"
)

// ImportSummary lists which files contributed to an import batch.
type ImportSummary struct {
	Files   []string `json:"files"`
	Skipped []string `json:"skipped"`
}

// LoadSeasonFiles reads every *.json season file in dir into one batch.
// Files that do not parse or carry no season are skipped, not fatal.
func (a *App) LoadSeasonFiles(ctx context.Context, dir string) (usecase.Batch, ImportSummary, error) {
	return loadSeasonFiles(ctx, a.Normalizer, dir, time.Now, a.logger)
}

type warnLogger interface {
	WarnContext(ctx context.Context, msg string, args ...any)
}

func loadSeasonFiles(ctx context.Context, n *normalize.Normalizer, dir string, now func() time.Time, logger warnLogger) (usecase.Batch, ImportSummary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return usecase.Batch{}, ImportSummary{}, fmt.Errorf("list season files: %w", err)
	}
	sort.Strings(paths)

	summary := ImportSummary{Files: []string{}, Skipped: []string{}}
	var batch usecase.Batch
	seasonSeen := make(map[string]struct{})
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return batch, summary, err
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return batch, summary, fmt.Errorf("read %s: %w", path, err)
		}
		var payload any
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			logger.WarnContext(ctx, "season file skipped", "file", path, "error", err)
			summary.Skipped = append(summary.Skipped, path)
			continue
		}

		imported, ok := n.SeasonFile(payload, provenance.New(provenance.SourceImport, now()))
		if !ok {
			logger.WarnContext(ctx, "season file skipped", "file", path, "reason", "no season")
			summary.Skipped = append(summary.Skipped, path)
			continue
		}
		summary.Files = append(summary.Files, path)

		batch.Leagues = append(batch.Leagues, imported.Leagues...)
		batch.SeasonStats = append(batch.SeasonStats, imported.Stats...)
		seasons := normalize.Seasons(imported.Leagues)
		if len(seasons) == 0 {
			seasons = []season.Season{{ID: imported.SeasonID, Year: season.YearOf(imported.SeasonID)}}
		}
		for _, s := range seasons {
			if _, ok := seasonSeen[s.ID]; ok {
				continue
			}
			seasonSeen[s.ID] = struct{}{}
			batch.Seasons = append(batch.Seasons, s)
		}
	}
	return batch, summary, nil
}
