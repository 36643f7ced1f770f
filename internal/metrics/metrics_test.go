package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	updatesTotal = nil
	platesTotal = nil
	capturesTotal = nil
	probeChecksTotal = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if updatesTotal == nil || platesTotal == nil ||
		capturesTotal == nil || probeChecksTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveUpdate("message")
	if val := testutil.ToFloat64(updatesTotal.WithLabelValues("message")); val != 1 {
		t.Errorf("expected updatesTotal{message} to be 1, got %f", val)
	}

	ObservePlate("accepted")
	if val := testutil.ToFloat64(platesTotal.WithLabelValues("accepted")); val != 1 {
		t.Errorf("expected platesTotal{accepted} to be 1, got %f", val)
	}

	ObserveCapture(OutcomeOK, 3*time.Second)
	if val := testutil.ToFloat64(capturesTotal.WithLabelValues(OutcomeOK)); val != 1 {
		t.Errorf("expected capturesTotal{ok} to be 1, got %f", val)
	}

	IncActiveCaptures()
	if val := testutil.ToFloat64(activeCaptures); val != 1 {
		t.Errorf("expected activeCaptures to be 1, got %f", val)
	}
	DecActiveCaptures()
	if val := testutil.ToFloat64(activeCaptures); val != 0 {
		t.Errorf("expected activeCaptures to be 0, got %f", val)
	}

	ObserveProbeCheck(OutcomeError)
	if val := testutil.ToFloat64(probeChecksTotal.WithLabelValues(OutcomeError)); val != 1 {
		t.Errorf("expected probeChecksTotal{error} to be 1, got %f", val)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	if Handler() == nil {
		t.Fatal("expected a metrics handler")
	}
}
