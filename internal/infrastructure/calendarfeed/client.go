package calendarfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/team-schedule/internal/platform/logging"
	"github.com/riskibarqy/team-schedule/internal/platform/resilience"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 2 << 20
	defaultWorkers  = 4

	// Closed breakers are pruned once this many hosts are tracked.
	maxTrackedHosts = 1024
)

var (
	errFeedTransient = crerr.New("calendar feed transient failure")
	errFeedTooLarge  = crerr.New("calendar feed too large")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	Timeout        time.Duration
	MaxBytes       int64
	Workers        int
	Logger         *logging.Logger
	Clock          clockwork.Clock
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client downloads iCalendar feeds over http(s). Unless an HTTPClient is
// injected, only publicly routable addresses are dialed. Each feed host gets
// its own circuit breaker.
type Client struct {
	httpClient    *http.Client
	maxBytes      int64
	workers       int
	logger        *logging.Logger
	clock         clockwork.Clock
	circuitConfig resilience.CircuitBreakerConfig

	breakersMu sync.Mutex
	breakers   map[string]*resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(newPublicTransport()),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Client{
		httpClient:    httpClient,
		maxBytes:      maxBytes,
		workers:       workers,
		logger:        logger,
		clock:         cfg.Clock,
		circuitConfig: cfg.CircuitBreaker,
		breakers:      make(map[string]*resilience.CircuitBreaker),
	}
}

// breakerFor returns the breaker guarding host, creating it on first use.
func (c *Client) breakerFor(host string) *resilience.CircuitBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	if breaker, ok := c.breakers[host]; ok {
		return breaker
	}
	if len(c.breakers) >= maxTrackedHosts {
		for tracked, breaker := range c.breakers {
			if breaker.State() == resilience.CircuitStateClosed {
				delete(c.breakers, tracked)
			}
		}
	}
	breaker := resilience.NewCircuitBreaker(c.circuitConfig, c.clock)
	c.breakers[host] = breaker
	return breaker
}

// FetchAll downloads every feed and joins the bodies in input order. Any
// failing feed fails the whole call.
func (c *Client) FetchAll(ctx context.Context, urls []string) (string, error) {
	targets := make([]string, 0, len(urls))
	for _, raw := range urls {
		target, err := normalizeFeedURL(raw)
		if err != nil {
			return "", err
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return "", fmt.Errorf("%w: no calendar urls", usecase.ErrInvalidInput)
	}
	if len(targets) == 1 {
		return c.Fetch(ctx, targets[0])
	}

	workerCount := min(c.workers, len(targets))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return "", fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	bodies := make([]string, len(targets))
	errs := make([]error, len(targets))

	var workers sync.WaitGroup
	for i, target := range targets {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			bodies[i], errs[i] = c.Fetch(ctx, target)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return "", fmt.Errorf("submit feed fetch to worker pool: %w", err)
		}
	}
	workers.Wait()

	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}
	return strings.Join(bodies, "\n"), nil
}

// Fetch downloads one feed through its host's circuit breaker.
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	var body string
	run := func() error {
		var err error
		body, err = c.get(ctx, target)
		return err
	}

	host := hostOf(target)
	var err error
	if c.circuitConfig.Enabled {
		err = c.breakerFor(host).Execute(run, isTransient)
	} else {
		err = run()
	}
	if err == nil {
		return body, nil
	}

	switch {
	case crerr.Is(err, resilience.ErrCircuitOpen):
		c.logger.WarnContext(ctx, "calendar feed circuit breaker rejected request", "host", host)
		return "", fmt.Errorf("%w: calendar feed host %s is temporarily unavailable", usecase.ErrDependencyUnavailable, host)
	case crerr.Is(err, errFeedAddressBlocked):
		c.logger.WarnContext(ctx, "calendar feed address refused", "host", host)
		return "", fmt.Errorf("%w: calendar url must point to a public host", usecase.ErrInvalidInput)
	case ctx.Err() != nil:
		return "", ctx.Err()
	case isTransient(err):
		c.logger.WarnContext(ctx, "calendar feed request failed", "host", hostOf(target), "error", err)
		return "", fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	default:
		return "", fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err)
	}
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", crerr.Wrap(err, "build calendar feed request")
	}
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if crerr.Is(err, errFeedAddressBlocked) {
			return "", crerr.Wrapf(err, "get %s", hostOf(target))
		}
		return "", crerr.Mark(crerr.Wrapf(err, "get %s", hostOf(target)), errFeedTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		statusErr := crerr.Newf("calendar feed %s returned status %d", hostOf(target), resp.StatusCode)
		if isRetryableStatus(resp.StatusCode) {
			return "", crerr.Mark(statusErr, errFeedTransient)
		}
		return "", statusErr
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBytes+1)); err != nil {
		return "", crerr.Mark(crerr.Wrap(err, "read calendar feed body"), errFeedTransient)
	}
	if int64(buf.Len()) > c.maxBytes {
		return "", crerr.Mark(crerr.Newf("calendar feed exceeds %d bytes", c.maxBytes), errFeedTooLarge)
	}
	return buf.String(), nil
}

// normalizeFeedURL accepts http, https and webcal (rewritten to https) URLs with a host.
func normalizeFeedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid calendar url %q", usecase.ErrInvalidInput, raw)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "webcal":
		parsed.Scheme = "https"
	default:
		return "", fmt.Errorf("%w: calendar url must use http or https", usecase.ErrInvalidInput)
	}
	return parsed.String(), nil
}

func isTransient(err error) bool {
	return crerr.Is(err, errFeedTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func hostOf(target string) string {
	parsed, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return parsed.Host
}
