package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

const sessionName = "federation-discovery"

type PipelineConfig struct {
	SkipQA bool
}

type RunResult struct {
	Created int             `json:"created"`
	Skipped int             `json:"skipped"`
	Updated int             `json:"updated"`
	Failed  int             `json:"failed"`
	Issues  []qaissue.Issue `json:"issues"`
	Ingest  IngestResult    `json:"ingest"`
}

// PipelineReport summarises one full run.
type PipelineReport struct {
	Session         crawl.Session   `json:"session"`
	Targets         []TargetOutcome `json:"targets"`
	FallbackTargets int             `json:"fallback_targets"`
	Run             RunResult       `json:"run"`
	TelemetryIssues []qaissue.Issue `json:"telemetry_issues"`
}

// PipelineService is the inbound contract: discovery, then idempotent
// ingestion, then QA.
type PipelineService struct {
	discovery *DiscoveryService
	ingest    *IngestService
	qa        *QAService
	crawlRepo crawl.Repository
	cfg       PipelineConfig
	logger    *logging.Logger
	now       func() time.Time
	sessionID func() string
}

func NewPipelineService(
	discovery *DiscoveryService,
	ingest *IngestService,
	qa *QAService,
	crawlRepo crawl.Repository,
	cfg PipelineConfig,
	logger *logging.Logger,
) *PipelineService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PipelineService{
		discovery: discovery,
		ingest:    ingest,
		qa:        qa,
		crawlRepo: crawlRepo,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
		now:       time.Now,
		sessionID: newSessionID,
	}
}

// Batch converts a discovery result into an ingest batch.
func (r DiscoveryResult) Batch() Batch {
	return Batch{
		Leagues:   r.Leagues,
		Seasons:   r.Seasons,
		Teams:     r.Teams,
		Matches:   r.Matches,
		Boxscores: r.Boxscores,
	}
}

// RunDiscovery discovers entities and persists the crawl session and its
// request logs. It never fails for lack of remote data.
func (s *PipelineService) RunDiscovery(ctx context.Context, scope DiscoveryScope) (DiscoveryResult, crawl.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.RunDiscovery")
	defer span.End()

	if s.discovery == nil {
		return DiscoveryResult{}, crawl.Session{}, fmt.Errorf("%w: discovery service is not configured", ErrDependencyUnavailable)
	}

	rec := crawl.NewRecorder(s.sessionID(), sessionName, s.now)
	result, err := s.discovery.Discover(ctx, scope, rec)
	session := rec.Finish(err)
	s.persistTelemetry(ctx, session, rec.Logs())
	if err != nil {
		return DiscoveryResult{}, session, fmt.Errorf("run discovery: %w", err)
	}
	return result, session, nil
}

// RunIngestAndQA persists the batch and validates every season it touched.
func (s *PipelineService) RunIngestAndQA(ctx context.Context, batch Batch) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.RunIngestAndQA")
	defer span.End()

	if s.ingest == nil {
		return RunResult{}, fmt.Errorf("%w: ingest service is not configured", ErrDependencyUnavailable)
	}

	ingested, err := s.ingest.Ingest(ctx, batch)
	out := RunResult{
		Created: ingested.Created,
		Skipped: ingested.Skipped,
		Updated: ingested.Updated,
		Failed:  ingested.Failed,
		Ingest:  ingested,
		Issues:  []qaissue.Issue{},
	}
	if err != nil {
		return out, fmt.Errorf("ingest: %w", err)
	}
	if s.cfg.SkipQA || s.qa == nil {
		return out, nil
	}

	issues, err := s.qa.ValidateSeasons(ctx, ingested.Seasons)
	out.Issues = append(out.Issues, issues...)
	if err != nil {
		// Partial QA output is still returned; season failures are already logged.
		s.logger.WarnContext(ctx, "season validation incomplete", "error", err)
	}
	return out, nil
}

// Run executes discovery, ingestion, season QA and telemetry QA.
func (s *PipelineService) Run(ctx context.Context, scope DiscoveryScope) (PipelineReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.Run")
	defer span.End()

	discovered, session, err := s.RunDiscovery(ctx, scope)
	report := PipelineReport{Session: session, TelemetryIssues: []qaissue.Issue{}}
	if err != nil {
		return report, err
	}
	report.Targets = discovered.Targets
	report.FallbackTargets = discovered.FallbackCount()

	report.Run, err = s.RunIngestAndQA(ctx, discovered.Batch())
	if err != nil {
		return report, err
	}

	if !s.cfg.SkipQA && s.qa != nil {
		issues, err := s.qa.AnalyzeTelemetry(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "telemetry analysis failed", "error", err)
		} else {
			report.TelemetryIssues = issues
		}
	}

	s.logger.InfoContext(ctx, "pipeline run finished",
		"session_id", session.ID,
		"requests", session.TotalRequests,
		"fallback_targets", report.FallbackTargets,
		"created", report.Run.Created,
		"skipped", report.Run.Skipped,
		"failed", report.Run.Failed,
		"issues", len(report.Run.Issues)+len(report.TelemetryIssues),
	)
	return report, nil
}

func (s *PipelineService) persistTelemetry(ctx context.Context, session crawl.Session, logs []crawl.LogEntry) {
	if s.crawlRepo == nil {
		return
	}
	// Telemetry must outlive a cancelled run.
	ctx = context.WithoutCancel(ctx)
	if err := s.crawlRepo.SaveSession(ctx, session); err != nil {
		s.logger.WarnContext(ctx, "save crawl session failed", "session_id", session.ID, "error", err)
	}
	if len(logs) == 0 {
		return
	}
	if err := s.crawlRepo.AppendLogs(ctx, logs); err != nil {
		s.logger.WarnContext(ctx, "append crawl logs failed", "session_id", session.ID, "logs", len(logs), "error", err)
	}
}

func newSessionID() string {
	v, err := uuid.NewV7()
	if err != nil {
		return "session-" + uuid.NewString()
	}
	return "session-" + v.String()
}
