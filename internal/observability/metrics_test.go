package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountJobs(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.IncPlan("push")
	metrics.IncJob("test", "ubuntu-24.04")
	metrics.IncJob("test", "ubuntu-24.04")
	metrics.IncFailure("context")

	if got := testutil.ToFloat64(metrics.jobs.WithLabelValues("test", "ubuntu-24.04")); got != 2 {
		t.Fatalf("expected 2 test jobs, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.plans.WithLabelValues("push")); got != 1 {
		t.Fatalf("expected 1 plan, got %v", got)
	}
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewMetrics(registry)
	second := NewMetrics(registry)

	first.IncJob("fmt", "ubuntu-24.04")
	second.IncJob("fmt", "ubuntu-24.04")

	if got := testutil.ToFloat64(first.jobs.WithLabelValues("fmt", "ubuntu-24.04")); got != 2 {
		t.Fatalf("expected shared counter, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	metrics.IncPlan("push")
	metrics.IncJob("test", "runner")
	metrics.IncFailure("context")
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.IncJob("grind", "ubicloud-standard-8-ubuntu-2404")

	path := filepath.Join(t.TempDir(), "ci_prep.prom")
	if err := WriteTextfile(path, registry); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `ci_prep_jobs_planned_total{family="grind",runner="ubicloud-standard-8-ubuntu-2404"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", data)
	}
}
