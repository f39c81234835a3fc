package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bglitzendorf/hoopstats/internal/domain/crawl"
	"github.com/bglitzendorf/hoopstats/internal/platform/logging"
)

type attemptLog struct {
	mu       sync.Mutex
	attempts []crawl.Attempt
}

func (l *attemptLog) Record(a crawl.Attempt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, a)
}

func newTestClient(t *testing.T, maxRetries int, observer Observer) (*Client, *[]time.Duration) {
	t.Helper()
	var waits []time.Duration
	c := NewClient(Config{
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		MaxRetries: maxRetries,
		BaseDelay:  time.Second,
		Logger:     logging.NewNop(),
		Observer:   observer,
	})
	c.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestFetch_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basketball-Stats-Crawler/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"leagues":[{"ligaId":"47955","name":"Bezirksliga"}]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 3, nil)
	resp, err := c.Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.True(t, resp.IsJSON)
	obj, ok := resp.JSON.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "leagues")
}

func TestFetch_ReturnsTextForHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>Wartung</title></html>"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 3, nil)
	resp, err := c.Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.False(t, resp.IsJSON)
	assert.Nil(t, resp.JSON)
	assert.Contains(t, resp.Text, "Wartung")
}

func TestFetch_RetriesThenExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	observed := &attemptLog{}
	c, waits := newTestClient(t, 3, observed)
	_, err := c.Fetch(context.Background(), srv.URL, Options{LeagueID: "47955"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchExhausted))
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Contains(t, exhausted.Err.Error(), "502")

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)

	require.Len(t, observed.attempts, 3)
	for _, a := range observed.attempts {
		assert.Equal(t, http.StatusBadGateway, a.StatusCode)
		assert.Equal(t, "47955", a.LeagueID)
		assert.Error(t, a.Err)
	}
}

func TestFetch_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, waits := newTestClient(t, 2, nil)
	_, err := c.Fetch(context.Background(), url, Options{})
	require.ErrorIs(t, err, ErrFetchExhausted)
	assert.Len(t, *waits, 1)
}

func TestFetch_RecoversOnLaterAttempt(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 3, nil)
	resp, err := c.Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.IsType(t, []any{}, resp.JSON)
	assert.Empty(t, resp.JSON)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetch_DecodeErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"leagues": [`))
	}))
	defer srv.Close()

	observed := &attemptLog{}
	c, waits := newTestClient(t, 3, observed)
	_, err := c.Fetch(context.Background(), srv.URL, Options{})

	require.ErrorIs(t, err, ErrDecode)
	assert.False(t, errors.Is(err, ErrFetchExhausted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, *waits)
	require.Len(t, observed.attempts, 1)
	assert.Equal(t, http.StatusOK, observed.attempts[0].StatusCode)
}

func TestFetch_PerCallRetryOverride(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 3, nil)
	_, err := c.Fetch(context.Background(), srv.URL, Options{MaxRetries: 1})
	require.ErrorIs(t, err, ErrFetchExhausted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetch_ContextCancelStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, BaseDelay: time.Hour, Logger: logging.NewNop()})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, srv.URL, Options{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, ErrFetchExhausted))
}

func TestFetch_ConcurrentCallsKeepTheirOwnRetryBudget(t *testing.T) {
	var hits int32
	secondArrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n == 2 {
			close(secondArrived)
		}
		if n == 1 {
			// Hold the first request until the other caller is in flight too.
			select {
			case <-secondArrived:
			case <-time.After(2 * time.Second):
			}
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	observed := &attemptLog{}
	c := NewClient(Config{
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		MaxRetries: 3,
		BaseDelay:  0,
		Logger:     logging.NewNop(),
		Observer:   observed,
	})

	budgets := []int{1, 4}
	leagues := []string{"47955", "48012"}
	errs := make([]error, len(budgets))
	var wg sync.WaitGroup
	for i := range budgets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Fetch(context.Background(), srv.URL, Options{MaxRetries: budgets[i], LeagueID: leagues[i]})
		}(i)
	}
	wg.Wait()

	for i, want := range budgets {
		var exhausted *ExhaustedError
		require.ErrorAs(t, errs[i], &exhausted)
		assert.Equal(t, want, exhausted.Attempts)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))

	perLeague := map[string]int{}
	for _, a := range observed.attempts {
		perLeague[a.LeagueID]++
	}
	assert.Equal(t, map[string]int{"47955": 1, "48012": 4}, perLeague)
}

func TestFetch_SameOptionsShareOneExecution(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 3, nil)
	opts := Options{LeagueID: "47955"}
	key := flightKey(srv.URL, 3, opts)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Fetch(context.Background(), srv.URL, opts)
			results <- err
		}()
	}
	require.Eventually(t, func() bool {
		return c.flight.Waiters(key) == 2
	}, 2*time.Second, time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFlightKey_SeparatesOptions(t *testing.T) {
	base := flightKey("https://example.test/rest/wam/data", 3, Options{})
	assert.NotEqual(t, base, flightKey("https://example.test/rest/wam/data", 1, Options{}))
	assert.NotEqual(t, base, flightKey("https://example.test/rest/wam/data", 3, Options{LeagueID: "47955"}))
	assert.NotEqual(t, base, flightKey("https://example.test/rest/wam/data", 3, Options{Headers: map[string]string{"Accept-Language": "de"}}))
	assert.Equal(t,
		flightKey("u", 3, Options{Headers: map[string]string{"A": "1", "B": "2"}}),
		flightKey("u", 3, Options{Headers: map[string]string{"B": "2", "A": "1"}}),
	)
}
