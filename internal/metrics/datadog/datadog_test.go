package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"sparkify/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend(empty) error = nil")
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	got := tags(metrics.Labels{"table": "songs", "job": "sparkify", "file": "a,b|c.json"})
	want := []string{"file:a_b_c.json", "job:sparkify", "table:songs"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tags() = %v, want %v", got, want)
	}
	if tags(nil) != nil {
		t.Fatalf("tags(nil) != nil")
	}
}

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		metrics.RowsTotal:    "etl.rows",
		metrics.StepTotal:    "etl.step",
		metrics.FilesTotal:   "etl.files",
		metrics.StepDuration: "etl.step_duration_seconds",
	}
	for in, want := range tests {
		if got := metricName(in); got != want {
			t.Errorf("metricName(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestBackendSendsDogStatsD listens on a local UDP socket and checks that
// counters and histograms arrive in DogStatsD format after Flush.
func TestBackendSendsDogStatsD(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "sparkify.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"table": "songs", "status": "inserted"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "song_file"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	// Observations after Flush are dropped; a second Flush is a no-op.
	b.IncCounter(metrics.RowsTotal, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}

	var got strings.Builder
	buf := make([]byte, 65536)
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !strings.Contains(got.String(), "etl.step_duration_seconds") || !strings.Contains(got.String(), "etl.rows") {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read: %v (got %q)", err, got.String())
		}
		got.Write(buf[:n])
		got.WriteByte('\n')
	}

	payload := got.String()
	for _, want := range []string{
		"sparkify.etl.rows:4|c|#env:test,status:inserted,table:songs",
		"sparkify.etl.step_duration_seconds:0.5|d|#env:test,step:song_file",
	} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing %q:\n%s", want, payload)
		}
	}
}
