// Package audit provides the structured audit channel used by workflows to
// record actions and, in particular, compensation failures. Compensations
// are best-effort: their own failures are recorded here rather than
// escalated, so operators and tests can observe double-failure scenarios.
package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Event names recorded by the reconciliation workflows.
const (
	// EventPublishRollback is recorded when a publish is rolled back
	// after a local persistence failure.
	EventPublishRollback = "uddi.publish.rollback"

	// EventCompensationFailed is recorded when a compensating action
	// itself failed, leaving local and remote state inconsistent.
	EventCompensationFailed = "uddi.compensation.failed"

	// EventSubscriptionLost is recorded when an inbound notification
	// could not be matched to any known subscription and was dropped.
	EventSubscriptionLost = "uddi.subscription.notification-dropped"

	// EventPolicyServiceFailed is recorded when the policy sweep skipped
	// one service after a failure and continued with its siblings.
	EventPolicyServiceFailed = "uddi.policy.service-failed"

	// EventEndpointRemoved is recorded when a monitored registry service
	// was deleted registry-side.
	EventEndpointRemoved = "uddi.monitor.endpoint-removed"

	// EventTaskFailed is recorded at the dispatch boundary for any task
	// whose transaction was rolled back.
	EventTaskFailed = "uddi.task.failed"
)

// Record is one audit entry.
type Record struct {
	// Event is one of the Event* names above.
	Event string

	// Actor is who caused the action; background work records "system".
	Actor string

	// Detail carries event-specific key/value context.
	Detail map[string]any
}

// Sink receives audit records. Implementations must be safe for concurrent
// use.
type Sink interface {
	Record(ctx context.Context, rec Record)
}

// ActorSystem is the actor recorded for background work.
const ActorSystem = "system"

type logSink struct{}

// NewLogSink returns a sink that emits records through slog at Warn level.
func NewLogSink() Sink {
	return logSink{}
}

func (logSink) Record(_ context.Context, rec Record) {
	attrs := make([]any, 0, 2+2*len(rec.Detail))
	attrs = append(attrs, "actor", rec.Actor)
	for k, v := range rec.Detail {
		attrs = append(attrs, k, v)
	}
	slog.Warn(rec.Event, attrs...)
}

// Recorder is a sink that keeps records in memory for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder returns an empty recording sink.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements Sink.
func (r *Recorder) Record(_ context.Context, rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// ByEvent returns the recorded entries with the given event name.
func (r *Recorder) ByEvent(event string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Event == event {
			out = append(out, rec)
		}
	}
	return out
}
