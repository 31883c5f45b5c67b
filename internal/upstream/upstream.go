package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/metrics"
)

// Config holds the [WG] and [WOTINSPECTOR] sections of the INI config.
type Config struct {
	WGAppID       string
	WGBaseURL     string // default "https://api.worldoftanks.%s/wotb"
	WGRateLimit   float64
	WGAPIWorkers  int

	WoTInspectorBaseURL   string // default "https://replays.wotinspector.com"
	WoTInspectorRateLimit float64
	WoTInspectorMaxPages  int
	WoTInspectorWorkers   int
	WoTInspectorAuthToken string

	// HTTPTimeout bounds a single request. Default 10s.
	HTTPTimeout time.Duration
	// MaxRetries bounds retries on a transient error before an operation
	// gives up and returns the spec's "None" result. Default 3.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.WGBaseURL == "" {
		c.WGBaseURL = "https://api.worldoftanks.%s/wotb"
	}
	if c.WoTInspectorBaseURL == "" {
		c.WoTInspectorBaseURL = "https://replays.wotinspector.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.WGRateLimit <= 0 {
		c.WGRateLimit = 10
	}
	if c.WoTInspectorRateLimit <= 0 {
		c.WoTInspectorRateLimit = 1
	}
	return c
}

// endpoint bundles the resilience primitives for one upstream service: a
// shared token bucket (mutation serialized internally by rate.Limiter) and
// a circuit breaker tripped on a sustained failure ratio.
type endpoint struct {
	name    string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func newEndpoint(name string, reqsPerSecond float64) *endpoint {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("endpoint", name).Str("from", from.String()).Str("to", to.String()).
				Msg("upstream circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &endpoint{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(reqsPerSecond), max(1, int(reqsPerSecond))),
		cb:      cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Client is the concrete UpstreamAPI: a rate-limited, circuit-broken HTTP
// client for the Wargaming tank-stats/achievements API and the
// WoTInspector replay archive.
type Client struct {
	http *http.Client
	cfg  Config
	wg   *endpoint
	wiv  *endpoint
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		cfg:  cfg,
		wg:   newEndpoint("wg-api", cfg.WGRateLimit),
		wiv:  newEndpoint("wotinspector", cfg.WoTInspectorRateLimit),
	}
}

// do executes req through ep's token bucket and circuit breaker, retrying
// transient failures up to cfg.MaxRetries times. It returns the response
// body on 2xx, ErrNotFound on 404, and ErrUpstreamTransient if the retry
// budget is exhausted on a transient failure.
func (c *Client) do(ctx context.Context, ep *endpoint, req *http.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
		if err := ep.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		metrics.RateLimiterTokens.WithLabelValues(ep.name).Set(ep.limiter.Tokens())

		start := time.Now()
		body, err := ep.cb.Execute(func() ([]byte, error) { return doOnce(c.http, req) })
		metrics.UpstreamRequestDuration.WithLabelValues(ep.name).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, "success").Inc()
			return body, nil
		}

		var nf *ErrNotFound
		if errors.As(err, &nf) {
			metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, "not_found").Inc()
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, "rejected").Inc()
			lastErr = &ErrUpstreamTransient{Op: req.URL.Path, Err: err}
			continue
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, "failure").Inc()
		lastErr = &ErrUpstreamTransient{Op: req.URL.Path, Err: err}
	}
	return nil, lastErr
}

func doOnce(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ErrNotFound{Op: req.URL.Path, ID: req.URL.RawQuery}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 200 * time.Millisecond
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
