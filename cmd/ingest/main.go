package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/bglitzendorf/hoopstats/internal/app"
	"github.com/bglitzendorf/hoopstats/internal/config"
	"github.com/bglitzendorf/hoopstats/internal/observability"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/usecase"
)

type summary struct {
	Mode     string                  `json:"mode"`
	Pipeline *usecase.PipelineReport `json:"pipeline,omitempty"`
	Import   *app.ImportSummary      `json:"import,omitempty"`
	Run      *usecase.RunResult      `json:"run,omitempty"`
	Reports  []usecase.ClubReport    `json:"reports,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

func main() {
	os.Exit(ingest(os.Args[1:], os.Stdout))
}

// ingest returns the process exit code so deferred shutdown always runs.
func ingest(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	maxLeagues := flags.Int("max-leagues", -1, "leagues to crawl; 0 means unlimited, negative keeps CRAWL_MAX_LEAGUES")
	importDir := flags.String("import-dir", "", "ingest crawled season JSON files from this directory instead of crawling")
	skipQA := flags.Bool("skip-qa", false, "skip QA after ingestion")
	withReport := flags.Bool("report", false, "append a tracked-club report for every ingested season")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if *maxLeagues >= 0 {
		cfg.Crawl.MaxLeagues = *maxLeagues
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() { _ = stopProfiling() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, app.Options{SkipQA: *skipQA})
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	out, runErr := run(ctx, a, strings.TrimSpace(*importDir), *withReport)
	if runErr != nil {
		out.Error = runErr.Error()
		if errors.Is(runErr, context.DeadlineExceeded) {
			logger.Error("run timed out", "timeout", cfg.RunTimeout)
		} else {
			logger.Error("run failed", "error", runErr)
		}
	}

	body, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("encode summary", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, string(body))

	if runErr != nil {
		return 1
	}
	return 0
}

func run(ctx context.Context, a *app.App, importDir string, withReport bool) (summary, error) {
	if importDir != "" {
		out := summary{Mode: "import"}
		batch, imported, err := a.LoadSeasonFiles(ctx, importDir)
		out.Import = &imported
		if err != nil {
			return out, err
		}
		result, err := a.Pipeline.RunIngestAndQA(ctx, batch)
		out.Run = &result
		if err != nil {
			return out, err
		}
		if withReport {
			out.Reports, err = reports(ctx, a, result.Ingest.Seasons)
		}
		return out, err
	}

	out := summary{Mode: "crawl"}
	report, err := a.Pipeline.Run(ctx, a.Scope())
	out.Pipeline = &report
	if err != nil {
		return out, err
	}
	if withReport {
		out.Reports, err = reports(ctx, a, report.Run.Ingest.Seasons)
	}
	return out, err
}

func reports(ctx context.Context, a *app.App, seasonIDs []string) ([]usecase.ClubReport, error) {
	out := make([]usecase.ClubReport, 0, len(seasonIDs))
	for _, seasonID := range seasonIDs {
		r, err := a.Reports.TrackedClubReport(ctx, seasonID)
		if err != nil {
			return out, fmt.Errorf("report %s: %w", seasonID, err)
		}
		out = append(out, r)
	}
	return out, nil
}
