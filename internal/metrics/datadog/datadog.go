// Package datadog sends run metrics to a DogStatsD agent.
//
// Metric names follow Datadog conventions rather than Prometheus ones: the
// first underscore becomes a dot and the "_total" suffix of counters is
// dropped, so etl_rows_total is reported as etl.rows. Durations are sent as
// distributions so percentiles aggregate across runs.
package datadog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/DataDog/datadog-go/v5/statsd"

	"sparkify/internal/metrics"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string
	// Namespace prefixes every metric name, e.g. "sparkify.".
	Namespace string
	// GlobalTags are attached to every metric, e.g. "job:sparkify".
	GlobalTags []string
}

// Backend implements metrics.Backend over a statsd client. After Flush the
// backend drops further observations.
type Backend struct {
	mu     sync.Mutex
	client *statsd.Client
}

// NewBackend connects a statsd client to cfg.Addr.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return
	}
	_ = b.client.Count(metricName(name), int64(math.Round(delta)), tags(labels), 1)
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return
	}
	_ = b.client.Distribution(metricName(name), value, tags(labels), 1)
}

// Flush sends buffered metrics and closes the client.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return nil
	}
	c := b.client
	b.client = nil

	if err := c.Flush(); err != nil {
		_ = c.Close()
		return fmt.Errorf("datadog: flush: %w", err)
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("datadog: close: %w", err)
	}
	return nil
}

// metricName maps a metrics package name onto a Datadog one.
func metricName(name string) string {
	return strings.TrimSuffix(strings.Replace(name, "_", ".", 1), "_total")
}

var tagEscaper = strings.NewReplacer(",", "_", "|", "_", "#", "_", ":", "_")

// tags renders labels as sorted "key:value" tags. Characters that would break
// the DogStatsD line are replaced by underscores.
func tags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, tagEscaper.Replace(k)+":"+tagEscaper.Replace(v))
	}
	sort.Strings(out)
	return out
}
