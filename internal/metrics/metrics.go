package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "auth_post"

var (
	registry = prometheus.NewRegistry()
	once     sync.Once

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Credential cleanup runs by outcome and skip reason",
		},
		[]string{"outcome", "reason"},
	)

	removalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removal_errors_total",
			Help:      "Failed credential file removals by error class",
		},
		[]string{"class"},
	)

	runDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last cleanup run",
		},
	)

	lastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last cleanup run finished",
		},
	)
)

// Init registers collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		registry.MustRegister(runsTotal, removalErrors, runDuration, lastRun)
	})
}

// Gatherer exposes the registry the run metrics live in.
func Gatherer() prometheus.Gatherer { return registry }

// ObserveRun records the terminal outcome of a run.
func ObserveRun(outcome, reason string, dur time.Duration) {
	runsTotal.WithLabelValues(outcome, reason).Inc()
	runDuration.Set(dur.Seconds())
	lastRun.SetToCurrentTime()
}

// IncRemovalError counts a failed removal under its fsutil error class.
func IncRemovalError(class string) { removalErrors.WithLabelValues(class).Inc() }

// WriteTextfile dumps the registry for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends the registry to a Pushgateway under the given job and grouping.
func Push(ctx context.Context, url, job string, grouping map[string]string) error {
	p := push.New(url, job).Gatherer(registry)
	for k, v := range grouping {
		if v == "" {
			continue
		}
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
