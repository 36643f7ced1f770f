package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/platewatch/scoreshot/internal/metrics"
)

func TestCheckReportsStatusAndLatency(t *testing.T) {
	t.Parallel()
	metrics.Init()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	checker, err := New(srv.URL+"/score?registration=X", "probe-agent", time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	res, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if res.Latency <= 0 {
		t.Fatalf("expected positive latency, got %v", res.Latency)
	}

	// The same origin must be probeable again on the same checker.
	res, err = checker.Check(context.Background())
	if err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 on revisit, got %d", res.StatusCode)
	}
}

func TestCheckTreatsErrorStatusAsReachable(t *testing.T) {
	t.Parallel()
	metrics.Init()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	checker, err := New(srv.URL, "", time.Second, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	res, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("expected reachable result for error status, got %v", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", res.StatusCode)
	}
}

func TestCheckFailsWhenOriginUnreachable(t *testing.T) {
	t.Parallel()
	metrics.Init()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	origin := srv.URL
	srv.Close()

	checker, err := New(origin, "", 500*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	res, err := checker.Check(context.Background())
	if err == nil {
		t.Fatalf("expected error for closed server, got result %+v", res)
	}
	if res.StatusCode != 0 {
		t.Fatalf("expected zero result on failure, got %+v", res)
	}
}

func TestCheckHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	metrics.Init()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	checker, err := New(srv.URL, "", 500*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := checker.Check(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	} else if !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestNewDerivesOriginFromBaseURL(t *testing.T) {
	t.Parallel()

	checker, err := New("https://vehiclescore.co.uk/score?registration=AB12CDE", "", 0, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := checker.Origin(); got != "https://vehiclescore.co.uk/" {
		t.Fatalf("unexpected origin %q", got)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New("/score", "", 0, nil); err == nil {
		t.Fatal("expected error for relative base url")
	}
}
