package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records assignment-engine outcomes.
type DispatchMetrics struct {
	assignments          *prometheus.CounterVec
	skipped              prometheus.Counter
	sweepFound           prometheus.Counter
	sweepProcessed       prometheus.Counter
	notificationFailures *prometheus.CounterVec
}

// NewDispatchMetrics registers the assignment metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Orders assigned to an agent, by trigger source.",
	}, []string{"source"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_assignments_skipped_total",
		Help: "Assignment attempts skipped because the order was already assigned.",
	})
	sweepFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_sweep_found_total",
		Help: "Candidate orders discovered by reconciliation sweeps.",
	})
	sweepProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_sweep_processed_total",
		Help: "Orders assigned by reconciliation sweeps.",
	})
	notificationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notification_failures_total",
		Help: "Post-assignment notification legs that failed.",
	}, []string{"destination"})
	reg.MustRegister(assignments, skipped, sweepFound, sweepProcessed, notificationFailures)
	return &DispatchMetrics{
		assignments:          assignments,
		skipped:              skipped,
		sweepFound:           sweepFound,
		sweepProcessed:       sweepProcessed,
		notificationFailures: notificationFailures,
	}
}

// IncAssigned increments the assignment counter for the given trigger source.
func (d *DispatchMetrics) IncAssigned(source string) {
	if d == nil || d.assignments == nil {
		return
	}
	d.assignments.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncSkipped increments the already-assigned skip counter.
func (d *DispatchMetrics) IncSkipped() {
	if d == nil || d.skipped == nil {
		return
	}
	d.skipped.Inc()
}

// ObserveSweep records the totals of one reconciliation sweep.
func (d *DispatchMetrics) ObserveSweep(found, processed int) {
	if d == nil || d.sweepFound == nil {
		return
	}
	d.sweepFound.Add(float64(found))
	d.sweepProcessed.Add(float64(processed))
}

// IncNotificationFailure increments the failure counter for one leg.
func (d *DispatchMetrics) IncNotificationFailure(destination string) {
	if d == nil || d.notificationFailures == nil {
		return
	}
	d.notificationFailures.WithLabelValues(normalizeLabel(destination)).Inc()
}
