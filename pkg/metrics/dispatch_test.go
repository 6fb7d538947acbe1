package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDispatchMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDispatchMetrics(reg)

	metrics.IncAssigned("order_created")
	metrics.IncAssigned("order_created")
	metrics.IncSkipped()
	metrics.ObserveSweep(5, 3)
	metrics.IncNotificationFailure("customer")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "dispatch_assignments_total", "source", "order_created"); err != nil {
		t.Fatalf("fetch assignments: %v", err)
	} else if got != 2 {
		t.Fatalf("expected assignments=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "dispatch_notification_failures_total", "destination", "customer"); err != nil {
		t.Fatalf("fetch notification failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	sweepFound := findMetricFamily(mfs, "dispatch_sweep_found_total")
	if sweepFound == nil || sweepFound.GetMetric()[0].GetCounter().GetValue() != 5 {
		t.Fatalf("expected sweep found=5")
	}
	sweepProcessed := findMetricFamily(mfs, "dispatch_sweep_processed_total")
	if sweepProcessed == nil || sweepProcessed.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected sweep processed=3")
	}
}

func TestDispatchMetricsTolerateNilRegistry(t *testing.T) {
	metrics := NewDispatchMetrics(nil)
	metrics.IncAssigned("manual")
	metrics.IncSkipped()
	metrics.ObserveSweep(1, 1)
	metrics.IncNotificationFailure("agent")

	var unset *DispatchMetrics
	unset.IncAssigned("manual")
	unset.IncSkipped()
}
