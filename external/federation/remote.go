// Package federation implements the league data sources consumed by the
// discovery service: RemoteSource probes the federation REST endpoints and
// FallbackSource synthesizes clearly-marked mock data.
package federation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bglitzendorf/hoopstats/external/fetch"
	"github.com/bglitzendorf/hoopstats/internal/domain/boxscore"
	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/domain/league"
	"github.com/bglitzendorf/hoopstats/internal/domain/match"
	"github.com/bglitzendorf/hoopstats/internal/domain/provenance"
	"github.com/bglitzendorf/hoopstats/internal/normalize"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/usecase"
)

const (
	DefaultBaseURL = "https://www.basketball-bund.net"
	remoteName     = "federation-rest"
	maxTitleLength = 120 // runes
)

var (
	DefaultLeagueEndpoints   = []string{"/rest/wam/data", "/api/leagues", "/rest/leagues", "/data/leagues.json"}
	DefaultMatchesEndpoints  = []string{"/rest/liga/id/{ligaId}/season/{seasonId}/matches"}
	DefaultBoxscoreEndpoints = []string{"/rest/match/id/{matchId}/matchInfo"}
)

type RemoteConfig struct {
	BaseURL           string
	LeagueEndpoints   []string
	MatchesEndpoints  []string
	BoxscoreEndpoints []string
	Logger            *logging.Logger
	Now               func() time.Time
}

// RemoteSource probes candidate endpoints strictly in order. The first
// plausible JSON payload wins; when every candidate fails it returns
// usecase.ErrSourceExhausted.
type RemoteSource struct {
	client     *fetch.Client
	normalizer *normalize.Normalizer
	baseURL    string
	leagues    []string
	matches    []string
	boxscores  []string
	logger     *logging.Logger
	now        func() time.Time
}

func NewRemoteSource(client *fetch.Client, normalizer *normalize.Normalizer, cfg RemoteConfig) *RemoteSource {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RemoteSource{
		client:     client,
		normalizer: normalizer,
		baseURL:    baseURL,
		leagues:    orDefault(cfg.LeagueEndpoints, DefaultLeagueEndpoints),
		matches:    orDefault(cfg.MatchesEndpoints, DefaultMatchesEndpoints),
		boxscores:  orDefault(cfg.BoxscoreEndpoints, DefaultBoxscoreEndpoints),
		logger:     logger.Named("federation"),
		now:        now,
	}
}

func (s *RemoteSource) Name() string { return remoteName }

// Observe returns a copy whose fetches are reported to rec.
func (s *RemoteSource) Observe(rec *crawl.Recorder) usecase.DataSource {
	clone := *s
	clone.client = s.client.WithObserver(rec)
	return &clone
}

func (s *RemoteSource) Leagues(ctx context.Context) ([]league.League, error) {
	var out []league.League
	err := s.probe(ctx, "leagues", s.leagues, nil, "", func(raw any) bool {
		out = s.normalizer.Leagues(raw, s.provenance())
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RemoteSource) SeasonMatches(ctx context.Context, l league.League) (normalize.MatchBatch, error) {
	vars := map[string]string{"ligaId": l.LigaID, "seasonId": l.SeasonID}
	var out normalize.MatchBatch
	err := s.probe(ctx, "season_matches", s.matches, vars, l.LigaID, func(raw any) bool {
		out = s.normalizer.Matches(raw, l.LigaID, l.SeasonID, s.provenance())
		return true
	})
	if err != nil {
		return normalize.MatchBatch{}, err
	}
	return out, nil
}

// MatchBoxscore requires at least one player row; an empty boxscore counts
// as a failed candidate.
func (s *RemoteSource) MatchBoxscore(ctx context.Context, m match.Match) ([]boxscore.Row, error) {
	vars := map[string]string{"ligaId": m.LigaID, "seasonId": m.SeasonID, "matchId": m.ID}
	var out []boxscore.Row
	err := s.probe(ctx, "boxscore", s.boxscores, vars, m.LigaID, func(raw any) bool {
		out = s.normalizer.Boxscore(raw, m.ID, s.provenance())
		return len(out) > 0
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RemoteSource) provenance() provenance.Provenance {
	return provenance.New(provenance.SourceREST, s.now())
}

// probe tries each endpoint once. accept reports whether a plausible payload
// actually produced usable data.
func (s *RemoteSource) probe(ctx context.Context, kind string, endpoints []string, vars map[string]string, leagueID string, accept func(raw any) bool) error {
	if s.client == nil || s.normalizer == nil {
		return fmt.Errorf("%w: %s: remote source is not configured", usecase.ErrSourceExhausted, kind)
	}

	var lastErr error
	for _, endpoint := range endpoints {
		url := s.resolve(endpoint, vars)
		resp, err := s.client.Fetch(ctx, url, fetch.Options{LeagueID: leagueID})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("probe %s: %w", kind, ctxErr)
			}
			attempts := 1
			var exhausted *fetch.ExhaustedError
			if errors.As(err, &exhausted) {
				attempts = exhausted.Attempts
			}
			s.logger.WarnContext(ctx, "endpoint failed", "kind", kind, "url", url, "attempts", attempts, "error", err)
			lastErr = err
			continue
		}

		if !resp.IsJSON {
			s.logger.WarnContext(ctx, "endpoint returned non-JSON body",
				"kind", kind,
				"url", url,
				"content_type", resp.ContentType,
				"bytes", resp.Bytes,
				"title", pageTitle(resp.Text),
			)
			lastErr = fmt.Errorf("%s: non-JSON response (%s)", url, resp.ContentType)
			continue
		}
		if !normalize.Plausible(resp.JSON) {
			lastErr = fmt.Errorf("%s: implausible payload", url)
			s.logger.WarnContext(ctx, "endpoint returned implausible payload", "kind", kind, "url", url)
			continue
		}
		if !accept(resp.JSON) {
			lastErr = fmt.Errorf("%s: payload carried no %s data", url, kind)
			s.logger.WarnContext(ctx, "endpoint returned empty data", "kind", kind, "url", url)
			continue
		}

		s.logger.DebugContext(ctx, "endpoint accepted", "kind", kind, "url", url, "shape", normalize.Classify(resp.JSON).Shape.String())
		return nil
	}

	if lastErr == nil {
		return fmt.Errorf("%w: %s: no candidate endpoints", usecase.ErrSourceExhausted, kind)
	}
	return fmt.Errorf("%w: %s: %d candidates failed: %v", usecase.ErrSourceExhausted, kind, len(endpoints), lastErr)
}

func (s *RemoteSource) resolve(endpoint string, vars map[string]string) string {
	for key, value := range vars {
		endpoint = strings.ReplaceAll(endpoint, "{"+key+"}", value)
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return s.baseURL + endpoint
}

// pageTitle extracts the HTML <title> of a text response for diagnostics.
func pageTitle(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ""
	}
	title := []rune(strings.TrimSpace(doc.Find("title").First().Text()))
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	return string(title)
}

func orDefault(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
