package headless

import (
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/platewatch/scoreshot/internal/capture"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	eng, err := New(capture.Settings{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.cfg.NavTimeout != 45*time.Second {
		t.Fatalf("expected default nav timeout, got %v", eng.cfg.NavTimeout)
	}
	if eng.cfg.ViewportWidth != 1280 || eng.cfg.Quality != 100 {
		t.Fatalf("expected default viewport and quality, got %dx? q=%d", eng.cfg.ViewportWidth, eng.cfg.Quality)
	}
	if eng.probe == nil || eng.logger == nil {
		t.Fatal("expected probe and logger fallbacks")
	}
	if !strings.Contains(eng.probe.Script(), "score") {
		t.Fatal("expected the default probe to target the score figure")
	}
}

func TestNewKeepsExplicitSettings(t *testing.T) {
	t.Parallel()

	cfg := capture.Settings{
		NavTimeout: 10 * time.Second,
		Quality:    80,
		Score:      capture.ScoreSettings{Rounds: 3},
	}
	eng, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.cfg.NavTimeout != 10*time.Second || eng.cfg.Quality != 80 {
		t.Fatalf("explicit settings overwritten: %+v", eng.cfg)
	}
	if eng.cfg.Score.Rounds != 3 {
		t.Fatalf("expected 3 poll rounds, got %d", eng.cfg.Score.Rounds)
	}
	if eng.cfg.Score.Interval != 500*time.Millisecond {
		t.Fatalf("expected unset knobs to default, got %v", eng.cfg.Score.Interval)
	}
}

func TestNewRejectsQualityOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := New(capture.Settings{Quality: 150}, nil, nil); err == nil {
		t.Fatal("expected error for quality above 100")
	}
}

func TestFindScrollRegionScript(t *testing.T) {
	t.Parallel()

	script := findScrollRegionScript(200)
	for _, want := range []string{
		"const min = 200;",
		"overflowY",
		"scrollHeight - el.clientHeight",
		"document.scrollingElement",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestScrollScriptsShareTheElectedRegion(t *testing.T) {
	t.Parallel()

	for _, script := range []string{scrollToBottomScript, readHeightScript, scrollToTopScript} {
		if !strings.Contains(script, "window.__scoreshotScrollRegion") {
			t.Fatalf("script does not address the elected region:\n%s", script)
		}
	}
	if !strings.Contains(scrollToTopScript, "window.scrollTo(0, 0)") {
		t.Fatal("expected the top rewind to reset the window as well")
	}
}

func TestConsentClickScript(t *testing.T) {
	t.Parallel()

	script := consentClickScript([]string{"Accept all", "OK"})
	if !strings.Contains(script, `["Accept all","OK"]`) {
		t.Fatalf("labels not embedded as JSON:\n%s", script)
	}
	if !strings.Contains(script, "toLowerCase()") || !strings.Contains(script, "el.click()") {
		t.Fatalf("unexpected consent script:\n%s", script)
	}
}

func TestDocumentMetaRecordsFirstDocumentResponse(t *testing.T) {
	t.Parallel()

	meta := &documentMeta{}
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 404, URL: "https://example.com/x.png"},
	})
	if status, _ := meta.snapshot(); status != 0 {
		t.Fatalf("non-document traffic recorded: status=%d", status)
	}

	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 200, URL: "https://vehiclescore.co.uk/score"},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 500, URL: "https://vehiclescore.co.uk/frame"},
	})

	status, url := meta.snapshot()
	if status != 200 || url != "https://vehiclescore.co.uk/score" {
		t.Fatalf("expected the first document response to win, got status=%d url=%s", status, url)
	}
}
