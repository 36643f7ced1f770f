// Package probe checks that the score page's origin answers at all. The
// result feeds /readyz and the bot's /status command; it is a liveness
// signal, not a content check.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/platewatch/scoreshot/internal/metrics"
)

// Result is one reachability observation.
type Result struct {
	StatusCode int
	Latency    time.Duration
}

// Checker performs single GETs against the target origin.
type Checker struct {
	origin    string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	base      *colly.Collector
	logger    *zap.Logger
}

// New derives the probe endpoint from the score page base URL: its
// origin root, so the check never depends on a registration parameter.
func New(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) (*Checker, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Checker{
		origin:    fmt.Sprintf("%s://%s/", u.Scheme, u.Host),
		userAgent: userAgent,
		timeout:   timeout,
		transport: newHTTPTransport(),
		base:      colly.NewCollector(colly.Async(false)),
		logger:    logger,
	}, nil
}

// Origin reports the probed URL, for startup logging and status replies.
func (c *Checker) Origin() string {
	return c.origin
}

// Check executes one GET. The returned error is non-nil only when no
// HTTP response arrived at all; an error status (404, 503) still proves
// the origin is reachable and is left to the caller to judge.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	collector := c.base.Clone()
	if c.userAgent != "" {
		collector.UserAgent = c.userAgent
	}
	// A single fixed-endpoint health check, not a crawl; the same origin
	// is visited over and over.
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(c.timeout)
	collector.WithTransport(c.transport)

	var (
		result   Result
		probeErr error
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		result = Result{StatusCode: r.StatusCode, Latency: time.Since(start)}
	})
	// Colly routes any status >= 203 here; a recorded status still
	// counts as reachable below.
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			result = Result{StatusCode: r.StatusCode, Latency: time.Since(start)}
			return
		}
		probeErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(c.origin)
	}()

	var visitErr error
	select {
	case <-ctx.Done():
		// The collector goroutine may still be writing result; do not
		// read it on this path.
		metrics.ObserveProbeCheck(metrics.OutcomeError)
		return Result{}, fmt.Errorf("probe canceled: %w", ctx.Err())
	case visitErr = <-done:
	}

	if result.StatusCode > 0 {
		metrics.ObserveProbeCheck(metrics.OutcomeOK)
		c.logger.Debug("target probed",
			zap.Int("status", result.StatusCode), zap.Duration("latency", result.Latency))
		return result, nil
	}

	err := probeErr
	if err == nil {
		err = visitErr
	}
	if err == nil {
		err = errors.New("no response received")
	}
	metrics.ObserveProbeCheck(metrics.OutcomeError)
	return Result{}, fmt.Errorf("probe %s: %w", c.origin, err)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
