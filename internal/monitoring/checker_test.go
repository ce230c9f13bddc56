package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/config"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	collector := NewCollector(&fakeLister{ops: sampleOps()})
	alerter := NewAlerter(config.AlertsConfig{CheckIntervalSecs: 1})
	checker := NewChecker(collector, alerter, config.AlertsConfig{CheckIntervalSecs: 1})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	// Let it start then cancel.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Run returned.
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	collector := NewCollector(&fakeLister{})
	alerter := NewAlerter(config.AlertsConfig{})

	checker := NewChecker(collector, alerter, config.AlertsConfig{CheckIntervalSecs: 0})
	assert.NotNil(t, checker)

	// Start and immediately cancel to verify it doesn't panic.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_Check(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cfg := config.AlertsConfig{WebhookURL: ts.URL, MinSeverity: "high"}
	checker := NewChecker(NewCollector(&fakeLister{ops: sampleOps()}), NewAlerter(cfg), cfg)

	assert.Equal(t, 2, checker.Check(context.Background(), zap.NewNop()))
	assert.Equal(t, 0, checker.Check(context.Background(), zap.NewNop()), "already delivered")
	assert.Equal(t, int32(2), received.Load())
}

func TestChecker_CheckUnavailable(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
	}))
	defer ts.Close()

	cfg := config.AlertsConfig{WebhookURL: ts.URL}
	checker := NewChecker(NewCollector(&fakeLister{err: errors.New("no sources")}), NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background(), zap.NewNop()))
	assert.Equal(t, int32(1), received.Load())
}
