package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bglitzendorf/hoopstats/external/federation"
	"github.com/bglitzendorf/hoopstats/external/fetch"
	"github.com/bglitzendorf/hoopstats/internal/config"
	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/player"
	"github.com/bglitzendorf/hoopstats/internal/domain/qaissue"
	"github.com/bglitzendorf/hoopstats/internal/domain/season"
	"github.com/bglitzendorf/hoopstats/internal/domain/seasonstat"
	"github.com/bglitzendorf/hoopstats/internal/domain/team"
	"github.com/bglitzendorf/hoopstats/internal/domain/teammatch"
	cacherepo "github.com/bglitzendorf/hoopstats/internal/infrastructure/repository/cache"
	"github.com/bglitzendorf/hoopstats/internal/infrastructure/repository/memory"
	"github.com/bglitzendorf/hoopstats/internal/infrastructure/repository/postgres"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	basecache "github.com/bglitzendorf/hoopstats/internal/platform/cache"
	idgen "github.com/bglitzendorf/hoopstats/internal/platform/id"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/platform/resilience"
	"github.com/bglitzendorf/hoopstats/internal/usecase"
)

const dbPingTimeout = 10 * time.Second

type Options struct {
	SkipQA bool
}

// App holds the wired services for one process.
type App struct {
	Config     config.Config
	Pipeline   *usecase.PipelineService
	Reports    *usecase.ReportService
	Normalizer *normalize.Normalizer

	logger *logging.Logger
	db     *sqlx.DB
}

type repositories struct {
	leagues     league.Repository
	seasons     season.Repository
	teams       team.Repository
	players     player.Repository
	matches     match.Repository
	boxscores   boxscore.Repository
	seasonStats seasonstat.Repository
	issues      qaissue.Repository
	crawl       crawl.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ids := idgen.NewTimeOrderedGenerator()
	normalizer := normalize.New(ids)
	matcher := teammatch.New(teammatch.Config{
		ClubName:      cfg.TrackedClubName,
		Abbreviations: cfg.TrackedClubAbbrevs,
	})

	client := fetch.NewClient(fetch.Config{
		Timeout:    cfg.Federation.Timeout,
		MaxRetries: cfg.Federation.MaxRetries,
		BaseDelay:  cfg.Federation.RetryBaseDelay,
		UserAgent:  cfg.Federation.UserAgent,
		Logger:     logger.Named("fetch"),
	})
	remote := federation.NewRemoteSource(client, normalizer, federation.RemoteConfig{
		BaseURL:           cfg.Federation.BaseURL,
		LeagueEndpoints:   cfg.Federation.LeagueEndpoints,
		MatchesEndpoints:  cfg.Federation.MatchesEndpoints,
		BoxscoreEndpoints: cfg.Federation.BoxscoreEndpoints,
		Logger:            logger.Named("federation"),
	})
	fallback := federation.NewFallbackSource(time.Now)

	discoverySvc := usecase.NewDiscoveryService(remote, fallback, matcher, usecase.DiscoveryConfig{
		Concurrency: cfg.Crawl.Concurrency,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.Federation.Breaker.Enabled,
			FailureThreshold: cfg.Federation.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Federation.Breaker.OpenTimeout,
		},
	}, logger)
	ingestSvc := usecase.NewIngestService(usecase.IngestRepositories{
		Leagues:     repos.leagues,
		Seasons:     repos.seasons,
		Teams:       repos.teams,
		Players:     repos.players,
		Matches:     repos.matches,
		Boxscores:   repos.boxscores,
		SeasonStats: repos.seasonStats,
	}, ids, logger)
	qaSvc := usecase.NewQAService(usecase.QARepositories{
		Matches:     repos.matches,
		Boxscores:   repos.boxscores,
		SeasonStats: repos.seasonStats,
		Issues:      repos.issues,
		Crawl:       repos.crawl,
	}, usecase.QAConfig{
		OutlierThreshold: cfg.QAOutlierThreshold,
		SeasonTolerance:  cfg.QASeasonTolerance,
		Concurrency:      cfg.Crawl.Concurrency,
	}, logger)
	reportSvc := usecase.NewReportService(usecase.ReportRepositories{
		Teams:       repos.teams,
		Matches:     repos.matches,
		Boxscores:   repos.boxscores,
		SeasonStats: repos.seasonStats,
	}, matcher, nil)

	pipeline := usecase.NewPipelineService(
		discoverySvc,
		ingestSvc,
		qaSvc,
		repos.crawl,
		usecase.PipelineConfig{SkipQA: opts.SkipQA},
		logger,
	)

	logger.Info("app built",
		"storage_driver", cfg.StorageDriver,
		"federation_base_url", cfg.Federation.BaseURL,
		"tracked_club", cfg.TrackedClubName,
		"cache_enabled", cfg.CacheEnabled,
		"skip_qa", opts.SkipQA,
	)

	return &App{
		Config:     cfg,
		Pipeline:   pipeline,
		Reports:    reportSvc,
		Normalizer: normalizer,
		logger:     logger,
		db:         db,
	}, nil
}

// Scope turns the crawl limits into a discovery scope.
func (a *App) Scope() usecase.DiscoveryScope {
	return usecase.DiscoveryScope{
		MaxLeagues:          a.Config.Crawl.MaxLeagues,
		MaxMatchesPerLeague: a.Config.Crawl.MaxMatchesPerLeague,
	}
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		logger.Info("postgres storage ready", "database", dbNameFromURL(cfg.DBURL))

		repos := repositories{
			leagues:     postgres.NewLeagueRepository(db),
			seasons:     postgres.NewSeasonRepository(db),
			teams:       postgres.NewTeamRepository(db),
			players:     postgres.NewPlayerRepository(db),
			matches:     postgres.NewMatchRepository(db),
			boxscores:   postgres.NewBoxscoreRepository(db),
			seasonStats: postgres.NewSeasonStatRepository(db),
			issues:      postgres.NewQAIssueRepository(db),
			crawl:       postgres.NewCrawlRepository(db),
		}
		if cfg.CacheEnabled {
			store := basecache.NewStore(cfg.CacheTTL)
			repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
			repos.players = cacherepo.NewPlayerRepository(repos.players, store)
		}
		return repos, db, nil
	default:
		mem := memory.NewStore()
		return repositories{
			leagues:     mem.Leagues,
			seasons:     mem.Seasons,
			teams:       mem.Teams,
			players:     mem.Players,
			matches:     mem.Matches,
			boxscores:   mem.Boxscores,
			seasonStats: mem.SeasonStats,
			issues:      mem.Issues,
			crawl:       mem.Crawl,
		}, nil, nil
	}
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open(
		"postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
