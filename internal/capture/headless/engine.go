// Package headless implements the capture engine on chromedp, driving a
// disposable Chrome instance through the render-convergence pipeline.
package headless

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/platewatch/scoreshot/internal/capture"
)

// consentSettle gives a dismissed banner time to leave the layout before
// anything is measured.
const consentSettle = 500 * time.Millisecond

// Engine implements capture.Engine. Each Capture call launches its own
// browser; nothing is shared between calls, so a crashed or poisoned
// session never leaks into the next job.
type Engine struct {
	cfg    capture.Settings
	probe  capture.ReadyProbe
	logger *zap.Logger
}

// New builds an Engine. Zero-valued settings fall back to the documented
// defaults; a nil probe falls back to the score probe.
func New(cfg capture.Settings, probe capture.ReadyProbe, logger *zap.Logger) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return nil, fmt.Errorf("quality must be in 1..100, got %d", cfg.Quality)
	}
	if probe == nil {
		probe = capture.NewScoreProbe()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, probe: probe, logger: logger}, nil
}

// Capture navigates to pageURL, waits for the page to converge, and
// writes a full-page screenshot to dest.
func (e *Engine) Capture(ctx context.Context, pageURL, dest string) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(e.cfg.ViewportWidth, e.cfg.ViewportHeight),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	// Start the browser before the navigation deadline begins to count.
	if err := chromedp.Run(tabCtx); err != nil {
		return &capture.Error{Stage: capture.StageLaunch, Cause: err}
	}

	meta := &documentMeta{}
	chromedp.ListenTarget(tabCtx, meta.captureEvent)

	if err := e.navigate(tabCtx, pageURL); err != nil {
		return err
	}
	if status, respURL := meta.snapshot(); status != 0 {
		e.logger.Debug("document response",
			zap.Int64("status", status), zap.String("url", respURL))
	}

	if err := e.settle(tabCtx); err != nil {
		return err
	}
	e.dismissConsent(tabCtx)

	if err := e.waitScoreStable(tabCtx); err != nil {
		return err
	}
	if err := e.exhaustLazyContent(tabCtx); err != nil {
		return err
	}
	if err := e.returnToTop(tabCtx); err != nil {
		return err
	}

	var shot []byte
	if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&shot, e.cfg.Quality)); err != nil {
		return &capture.Error{Stage: capture.StageScreenshot, Cause: err}
	}
	if err := os.WriteFile(dest, shot, 0o600); err != nil {
		_ = os.Remove(dest)
		return &capture.Error{Stage: capture.StageSave, Cause: err}
	}

	e.logger.Debug("screenshot written",
		zap.String("url", pageURL), zap.String("dest", dest), zap.Int("bytes", len(shot)))
	return nil
}

// navigate loads the page with DOMContentLoaded semantics under the
// navigation deadline. Deadline expiry with the tab still alive is not a
// failure: the pipeline continues against whatever rendered.
func (e *Engine) navigate(tabCtx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(tabCtx, e.cfg.NavTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		e.sessionSetup(),
		navigateDOMContentLoaded(pageURL),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) && tabCtx.Err() == nil:
		e.logger.Warn("navigation deadline hit, capturing current state",
			zap.String("url", pageURL), zap.Duration("timeout", e.cfg.NavTimeout))
		return nil
	default:
		return &capture.Error{Stage: capture.StageNavigate, Cause: err}
	}
}

func (e *Engine) sessionSetup() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if e.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(e.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// navigateDOMContentLoaded issues the navigation and completes on the
// DOM-content event rather than full load, matching how the page is
// consumed: layout and scripts matter, straggling subresources do not.
func navigateDOMContentLoaded(pageURL string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		done := make(chan struct{})
		var once sync.Once

		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		chromedp.ListenTarget(listenCtx, func(ev any) {
			if _, ok := ev.(*page.EventDomContentEventFired); ok {
				once.Do(func() { close(done) })
			}
		})

		_, _, errorText, err := page.Navigate(pageURL).Do(ctx)
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if errorText != "" {
			return fmt.Errorf("navigation failed: %s", errorText)
		}

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func (e *Engine) settle(tabCtx context.Context) error {
	if e.cfg.Settle <= 0 {
		return nil
	}
	if err := chromedp.Run(tabCtx, chromedp.Sleep(e.cfg.Settle)); err != nil {
		return &capture.Error{Stage: capture.StageSettle, Cause: err}
	}
	return nil
}

// dismissConsent clicks through cookie banners best-effort. Errors and
// misses are ignored; the page works either way, the banner just ends up
// in the screenshot.
func (e *Engine) dismissConsent(tabCtx context.Context) {
	if len(e.cfg.ConsentLabels) == 0 {
		return
	}
	var clicked string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(consentClickScript(e.cfg.ConsentLabels), &clicked)); err != nil {
		e.logger.Debug("consent dismissal skipped", zap.Error(err))
		return
	}
	if clicked != "" {
		e.logger.Debug("consent prompt dismissed", zap.String("button", clicked))
		_ = chromedp.Run(tabCtx, chromedp.Sleep(consentSettle))
	}
}

// waitScoreStable polls the probe until the observed value repeats for
// the configured streak. Exhausting the rounds is not a failure; the
// page may simply not expose the figure.
func (e *Engine) waitScoreStable(tabCtx context.Context) error {
	script := e.probe.Script()
	tracker := newStabilityTracker(e.cfg.Score.StableReads)
	for round := 1; round <= e.cfg.Score.Rounds; round++ {
		var observed string
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(script, &observed)); err != nil {
			return &capture.Error{Stage: capture.StageEvaluate, Cause: err}
		}
		if tracker.Observe(observed) {
			e.logger.Debug("score stabilized",
				zap.String("value", observed), zap.Int("round", round))
			return nil
		}
		if round < e.cfg.Score.Rounds {
			if err := chromedp.Run(tabCtx, chromedp.Sleep(e.cfg.Score.Interval)); err != nil {
				return &capture.Error{Stage: capture.StageEvaluate, Cause: err}
			}
		}
	}
	e.logger.Debug("score poll exhausted, continuing",
		zap.Int("rounds", e.cfg.Score.Rounds))
	return nil
}

// exhaustLazyContent scrolls the dominant scrollable region to the
// bottom until its height stops growing, forcing lazy-loaded sections to
// materialize before capture.
func (e *Engine) exhaustLazyContent(tabCtx context.Context) error {
	var region string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(findScrollRegionScript(e.cfg.Scroll.MinScrollPx), &region)); err != nil {
		return &capture.Error{Stage: capture.StageScroll, Cause: err}
	}
	e.logger.Debug("scroll region elected", zap.String("region", region))

	tracker := newHeightTracker(e.cfg.Scroll.StableReads)
	for i := 1; i <= e.cfg.Scroll.MaxIterations; i++ {
		var height int
		err := chromedp.Run(tabCtx,
			chromedp.Evaluate(scrollToBottomScript, nil),
			chromedp.Sleep(e.cfg.Scroll.Interval),
			chromedp.Evaluate(readHeightScript, &height),
		)
		if err != nil {
			return &capture.Error{Stage: capture.StageScroll, Cause: err}
		}
		if tracker.Observe(height) {
			e.logger.Debug("content height stable",
				zap.Int("height", height), zap.Int("iterations", i))
			return nil
		}
	}
	e.logger.Debug("scroll budget exhausted, continuing",
		zap.Int("iterations", e.cfg.Scroll.MaxIterations))
	return nil
}

// returnToTop rewinds the region and window so the capture starts at the
// page origin, then lets the layout settle once more.
func (e *Engine) returnToTop(tabCtx context.Context) error {
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(scrollToTopScript, nil)); err != nil {
		return &capture.Error{Stage: capture.StageScroll, Cause: err}
	}
	return e.settle(tabCtx)
}

// documentMeta records the first document response for diagnostics. A
// soft-404 score page still returns 200 HTML, so the status is logged,
// never acted on.
type documentMeta struct {
	mu     sync.Mutex
	status int64
	url    string
}

func (m *documentMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == 0 {
		m.status = resp.Response.Status
		m.url = resp.Response.URL
	}
}

func (m *documentMeta) snapshot() (int64, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.url
}
