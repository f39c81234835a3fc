package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

// Config stores runtime configuration for the ingestion pipeline.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	LogLevel                logging.Level
	StorageDriver           string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	Federation              FederationConfig
	Crawl                   CrawlConfig
	RunTimeout              time.Duration
	TrackedClubName         string
	TrackedClubAbbrevs      []string
	QAOutlierThreshold      float64
	QASeasonTolerance       float64
	UptraceEnabled          bool
	UptraceDSN              string
	UptraceLogsEnabled      bool
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string
	PyroscopeAppName        string
	PyroscopeUploadRate     time.Duration
}

// FederationConfig describes the remote source. Endpoint lists are in
// priority order and may contain {ligaId}, {seasonId} and {matchId}.
type FederationConfig struct {
	BaseURL           string
	LeagueEndpoints   []string
	MatchesEndpoints  []string
	BoxscoreEndpoints []string
	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	UserAgent         string
	Breaker           BreakerConfig
}

// BreakerConfig controls when discovery stops asking the remote source and
// serves remaining targets from the fallback.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
}

type CrawlConfig struct {
	MaxLeagues          int
	MaxMatchesPerLeague int
	Concurrency         int
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultLeagueEndpoints   = "/rest/wam/data,/api/leagues,/rest/leagues,/data/leagues.json"
	defaultMatchesEndpoints  = "/rest/liga/id/{ligaId}/season/{seasonId}/matches"
	defaultBoxscoreEndpoints = "/rest/match/id/{matchId}/matchInfo"
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	storageDriver := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageMemory)))
	switch storageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", storageDriver, StorageMemory, StoragePostgres)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storageDriver == StoragePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=postgres")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	federation, err := loadFederation()
	if err != nil {
		return Config{}, err
	}
	crawl, err := loadCrawl()
	if err != nil {
		return Config{}, err
	}

	runTimeout, err := time.ParseDuration(getEnv("RUN_TIMEOUT", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RUN_TIMEOUT: %w", err)
	}
	if runTimeout <= 0 {
		return Config{}, fmt.Errorf("RUN_TIMEOUT must be > 0")
	}

	trackedClubName := strings.TrimSpace(getEnv("TRACKED_CLUB_NAME", "BG Litzendorf"))
	if trackedClubName == "" {
		return Config{}, fmt.Errorf("TRACKED_CLUB_NAME cannot be empty")
	}

	outlierThreshold, err := getEnvAsFloat("QA_OUTLIER_THRESHOLD", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse QA_OUTLIER_THRESHOLD: %w", err)
	}
	if outlierThreshold <= 0 {
		return Config{}, fmt.Errorf("QA_OUTLIER_THRESHOLD must be > 0")
	}
	seasonTolerance, err := getEnvAsFloat("QA_SEASON_TOLERANCE", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse QA_SEASON_TOLERANCE: %w", err)
	}
	if seasonTolerance < 0 {
		return Config{}, fmt.Errorf("QA_SEASON_TOLERANCE must be >= 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("SERVICE_NAME", "hoopstats-ingest"),
		ServiceVersion:          getEnv("SERVICE_VERSION", "dev"),
		LogLevel:                logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		StorageDriver:           storageDriver,
		DBURL:                   dbURL,
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		CacheEnabled:            cacheEnabled,
		CacheTTL:                cacheTTL,
		Federation:              federation,
		Crawl:                   crawl,
		RunTimeout:              runTimeout,
		TrackedClubName:         trackedClubName,
		TrackedClubAbbrevs:      splitCSV(getEnv("TRACKED_CLUB_ABBREVIATIONS", "BGL")),
		QAOutlierThreshold:      outlierThreshold,
		QASeasonTolerance:       seasonTolerance,
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              uptraceDSN,
		UptraceLogsEnabled:      uptraceLogsEnabled,
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  pyroscopeServerAddress,
		PyroscopeUploadRate:     pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func loadFederation() (FederationConfig, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(getEnv("FEDERATION_BASE_URL", "https://www.basketball-bund.net")), "/")
	if baseURL == "" {
		return FederationConfig{}, fmt.Errorf("FEDERATION_BASE_URL cannot be empty")
	}

	timeout, err := time.ParseDuration(getEnv("FEDERATION_TIMEOUT", "25s"))
	if err != nil {
		return FederationConfig{}, fmt.Errorf("parse FEDERATION_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return FederationConfig{}, fmt.Errorf("FEDERATION_TIMEOUT must be > 0")
	}

	maxRetries, err := getEnvAsInt("FEDERATION_MAX_RETRIES", 3)
	if err != nil {
		return FederationConfig{}, fmt.Errorf("parse FEDERATION_MAX_RETRIES: %w", err)
	}
	if maxRetries < 1 {
		return FederationConfig{}, fmt.Errorf("FEDERATION_MAX_RETRIES must be >= 1")
	}

	baseDelay, err := time.ParseDuration(getEnv("FEDERATION_RETRY_BASE_DELAY", "1s"))
	if err != nil {
		return FederationConfig{}, fmt.Errorf("parse FEDERATION_RETRY_BASE_DELAY: %w", err)
	}
	if baseDelay < 0 {
		return FederationConfig{}, fmt.Errorf("FEDERATION_RETRY_BASE_DELAY must be >= 0")
	}

	breaker, err := loadBreaker()
	if err != nil {
		return FederationConfig{}, err
	}

	cfg := FederationConfig{
		BaseURL:           baseURL,
		LeagueEndpoints:   splitCSV(getEnv("FEDERATION_LEAGUE_ENDPOINTS", defaultLeagueEndpoints)),
		MatchesEndpoints:  splitCSV(getEnv("FEDERATION_MATCHES_ENDPOINTS", defaultMatchesEndpoints)),
		BoxscoreEndpoints: splitCSV(getEnv("FEDERATION_BOXSCORE_ENDPOINTS", defaultBoxscoreEndpoints)),
		Timeout:           timeout,
		MaxRetries:        maxRetries,
		RetryBaseDelay:    baseDelay,
		UserAgent:         getEnv("FEDERATION_USER_AGENT", "Basketball-Stats-Crawler/1.0"),
		Breaker:           breaker,
	}
	if len(cfg.LeagueEndpoints) == 0 {
		return FederationConfig{}, fmt.Errorf("FEDERATION_LEAGUE_ENDPOINTS cannot be empty")
	}
	return cfg, nil
}

func loadBreaker() (BreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("FEDERATION_BREAKER_ENABLED", "true"))
	if err != nil {
		return BreakerConfig{}, fmt.Errorf("parse FEDERATION_BREAKER_ENABLED: %w", err)
	}
	threshold, err := getEnvAsInt("FEDERATION_BREAKER_THRESHOLD", 5)
	if err != nil {
		return BreakerConfig{}, fmt.Errorf("parse FEDERATION_BREAKER_THRESHOLD: %w", err)
	}
	if threshold < 1 {
		return BreakerConfig{}, fmt.Errorf("FEDERATION_BREAKER_THRESHOLD must be >= 1")
	}
	openTimeout, err := time.ParseDuration(getEnv("FEDERATION_BREAKER_OPEN_TIMEOUT", "1m"))
	if err != nil {
		return BreakerConfig{}, fmt.Errorf("parse FEDERATION_BREAKER_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return BreakerConfig{}, fmt.Errorf("FEDERATION_BREAKER_OPEN_TIMEOUT must be > 0")
	}

	return BreakerConfig{
		Enabled:          enabled,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
	}, nil
}

func loadCrawl() (CrawlConfig, error) {
	maxLeagues, err := getEnvAsInt("CRAWL_MAX_LEAGUES", 2)
	if err != nil {
		return CrawlConfig{}, fmt.Errorf("parse CRAWL_MAX_LEAGUES: %w", err)
	}
	if maxLeagues < 0 {
		return CrawlConfig{}, fmt.Errorf("CRAWL_MAX_LEAGUES must be >= 0")
	}
	maxMatches, err := getEnvAsInt("CRAWL_MAX_MATCHES_PER_LEAGUE", 3)
	if err != nil {
		return CrawlConfig{}, fmt.Errorf("parse CRAWL_MAX_MATCHES_PER_LEAGUE: %w", err)
	}
	if maxMatches < 0 {
		return CrawlConfig{}, fmt.Errorf("CRAWL_MAX_MATCHES_PER_LEAGUE must be >= 0")
	}
	concurrency, err := getEnvAsInt("CRAWL_CONCURRENCY", 4)
	if err != nil {
		return CrawlConfig{}, fmt.Errorf("parse CRAWL_CONCURRENCY: %w", err)
	}
	if concurrency < 1 || concurrency > 8 {
		return CrawlConfig{}, fmt.Errorf("CRAWL_CONCURRENCY must be between 1 and 8")
	}

	return CrawlConfig{
		MaxLeagues:          maxLeagues,
		MaxMatchesPerLeague: maxMatches,
		Concurrency:         concurrency,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
