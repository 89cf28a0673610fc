// Package telemetry holds the OpenTelemetry instruments of the
// reconciliation layer. Constructors accept a nil meter provider and degrade
// to no-op instruments, so callers never branch on whether metrics are
// configured.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/gatewaymesh/uddi-reconciler"

// TaskMetrics records task dispatch outcomes.
type TaskMetrics struct {
	taskDuration metric.Float64Histogram
	tasksTotal   metric.Int64Counter
}

// NewTaskMetrics creates the task instruments on the given provider. A nil
// provider yields no-op instruments.
func NewTaskMetrics(provider metric.MeterProvider) (*TaskMetrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	duration, err := meter.Float64Histogram(
		"uddi_task_duration_seconds",
		metric.WithDescription("Duration of reconciliation task executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	total, err := meter.Int64Counter(
		"uddi_tasks_total",
		metric.WithDescription("Count of reconciliation task executions by outcome"),
	)
	if err != nil {
		return nil, err
	}
	return &TaskMetrics{taskDuration: duration, tasksTotal: total}, nil
}

// RecordTask records one task execution. reason is empty on success.
func (m *TaskMetrics) RecordTask(ctx context.Context, eventType string, d time.Duration, success bool, reason string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
		attribute.Bool("success", success),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	m.taskDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	m.tasksTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// SweepMetrics records reconciliation sweep outcomes.
type SweepMetrics struct {
	rowsChanged metric.Int64Counter
	sweepsTotal metric.Int64Counter
}

// NewSweepMetrics creates the sweep instruments on the given provider. A nil
// provider yields no-op instruments.
func NewSweepMetrics(provider metric.MeterProvider) (*SweepMetrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	rows, err := meter.Int64Counter(
		"uddi_sweep_rows_total",
		metric.WithDescription("Status rows created, updated, and deleted by reconciliation sweeps"),
	)
	if err != nil {
		return nil, err
	}
	sweeps, err := meter.Int64Counter(
		"uddi_sweeps_total",
		metric.WithDescription("Count of reconciliation sweeps by outcome"),
	)
	if err != nil {
		return nil, err
	}
	return &SweepMetrics{rowsChanged: rows, sweepsTotal: sweeps}, nil
}

// RecordSweep records one sweep's row changes.
func (m *SweepMetrics) RecordSweep(ctx context.Context, created, updated, deleted int, success bool) {
	if m == nil {
		return
	}
	m.sweepsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if !success {
		return
	}
	m.rowsChanged.Add(ctx, int64(created), metric.WithAttributes(attribute.String("op", "create")))
	m.rowsChanged.Add(ctx, int64(updated), metric.WithAttributes(attribute.String("op", "update")))
	m.rowsChanged.Add(ctx, int64(deleted), metric.WithAttributes(attribute.String("op", "delete")))
}
