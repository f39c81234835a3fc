// Package fetch performs GET requests against the federation source with
// bounded retries and linear backoff, decoding JSON when the response
// declares it and returning raw text otherwise.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
	"github.com/bglitzendorf/hoopstats/internal/platform/resilience"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	defaultTimeout    = 25 * time.Second
	defaultUserAgent  = "Basketball-Stats-Crawler/1.0"
	maxBodyBytes      = 8 << 20
)

var (
	ErrFetchExhausted = crerr.New("fetch exhausted")
	// ErrDecode marks a body that declared JSON but did not parse. It is
	// never retried.
	ErrDecode = crerr.New("decode response body")
)

// ExhaustedError is returned after the final attempt failed. It matches
// ErrFetchExhausted and unwraps to the last underlying error.
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: exhausted after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }

// Observer receives every HTTP attempt, successful or not.
type Observer interface {
	Record(a crawl.Attempt)
}

type Config struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	UserAgent  string
	Logger     *logging.Logger
	Observer   Observer
}

type Options struct {
	Headers map[string]string
	// MaxRetries overrides the client default when > 0.
	MaxRetries int
	// LeagueID tags telemetry for requests made on behalf of a league.
	LeagueID string
}

type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	IsJSON      bool
	JSON        any
	Text        string
	Bytes       int
}

type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	userAgent  string
	logger     *logging.Logger
	observer   Observer
	flight     resilience.Group[Response]
	wait       func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := cfg.BaseDelay
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		userAgent:  userAgent,
		logger:     logger.Named("fetch"),
		observer:   cfg.Observer,
		wait:       sleepContext,
		now:        time.Now,
	}
}

// WithObserver returns a copy of the client reporting attempts to o.
func (c *Client) WithObserver(o Observer) *Client {
	clone := &Client{
		httpClient: c.httpClient,
		maxRetries: c.maxRetries,
		baseDelay:  c.baseDelay,
		userAgent:  c.userAgent,
		logger:     c.logger,
		observer:   o,
		wait:       c.wait,
		now:        c.now,
	}
	return clone
}

// Fetch GETs url. Attempt i (1-based) waits BaseDelay*(i-1) before sending.
// Transport errors and non-2xx statuses are retried; decode errors are not.
// Concurrent calls with the same url and options share one execution, which
// keeps running while at least one caller still waits for it.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (Response, error) {
	attempts := c.maxRetries
	if opts.MaxRetries > 0 {
		attempts = opts.MaxRetries
	}

	resp, err, _ := c.flight.DoContext(ctx, flightKey(url, attempts, opts), func(ctx context.Context) (Response, error) {
		return c.fetchWithRetry(ctx, url, attempts, opts)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("fetch %s: %w", url, ctxErr)
		}
		return Response{}, err
	}
	return resp, nil
}

// flightKey separates calls whose attempt budget, telemetry tag or headers
// differ.
func flightKey(url string, attempts int, opts Options) string {
	var b strings.Builder
	b.WriteString(url)
	b.WriteString("\x00")
	b.WriteString(strconv.Itoa(attempts))
	b.WriteString("\x00")
	b.WriteString(opts.LeagueID)
	keys := make([]string, 0, len(opts.Headers))
	for key := range opts.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString("\x00")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(opts.Headers[key])
	}
	return b.String()
}

func (c *Client) fetchWithRetry(ctx context.Context, url string, attempts int, opts Options) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, c.baseDelay*time.Duration(attempt-1)); err != nil {
				return Response{}, fmt.Errorf("fetch %s: %w", url, err)
			}
		}

		c.logger.DebugContext(ctx, "fetching", "url", url, "attempt", attempt, "max_attempts", attempts)
		resp, err := c.do(ctx, url, opts)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrDecode) {
			return Response{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("fetch %s: %w", url, ctxErr)
		}

		lastErr = err
		c.logger.WarnContext(ctx, "fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
	}

	return Response{}, &ExhaustedError{URL: url, Attempts: attempts, Err: lastErr}
}

func (c *Client) do(ctx context.Context, url string, opts Options) (resp Response, err error) {
	started := c.now()
	attempt := crawl.Attempt{URL: url, LeagueID: opts.LeagueID, At: started}
	defer func() {
		if c.observer == nil {
			return
		}
		attempt.Duration = c.now().Sub(started)
		attempt.Err = err
		c.observer.Record(attempt)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(httpResp.Body, maxBodyBytes)); err != nil {
		attempt.StatusCode = httpResp.StatusCode
		return Response{}, fmt.Errorf("read response body: %w", err)
	}

	attempt.StatusCode = httpResp.StatusCode
	attempt.Bytes = buf.Len()
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
	}

	body := buf.String()
	contentType := httpResp.Header.Get("Content-Type")
	resp = Response{
		URL:         url,
		StatusCode:  httpResp.StatusCode,
		ContentType: contentType,
		Bytes:       len(body),
	}
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		resp.Text = body
		return resp, nil
	}

	var decoded any
	if err := sonic.UnmarshalString(body, &decoded); err != nil {
		return Response{}, fmt.Errorf("%w: %s: %v", ErrDecode, url, err)
	}
	resp.IsJSON = true
	resp.JSON = decoded
	return resp, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
