package metrics

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestObservePass(t *testing.T) {
	ingested := testutil.ToFloat64(UsageLines.WithLabelValues("ingested"))
	malformed := testutil.ToFloat64(UsageLines.WithLabelValues("malformed"))
	errs := testutil.ToFloat64(IngestErrors)

	ObservePass("tick", 5, 2, 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(UsageLines.WithLabelValues("ingested")) - ingested; got != 5 {
		t.Errorf("ingested delta = %v, want 5", got)
	}
	if got := testutil.ToFloat64(UsageLines.WithLabelValues("malformed")) - malformed; got != 2 {
		t.Errorf("malformed delta = %v, want 2", got)
	}

	ObservePass("tick", 3, 0, time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(IngestErrors) - errs; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(UsageLines.WithLabelValues("ingested")) - ingested; got != 5 {
		t.Errorf("failed pass should not count lines, delta = %v", got)
	}
}

func TestServer_ServesMetrics(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop()

	IngestPasses.WithLabelValues("startup").Inc()

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "rewind_ingest_passes_total") {
		t.Error("exposition should include rewind_ingest_passes_total")
	}
}

func TestServer_Health(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop()

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestServer_BindError(t *testing.T) {
	s := NewServer("256.0.0.1:bad", zerolog.Nop())
	if err := s.Start(); err == nil {
		s.Stop()
		t.Error("expected bind error")
	}
}
