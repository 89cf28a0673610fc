package metricsagg

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder is an in-process Aggregator fed by the gateway's request path.
// Each service accumulates into a single open bin; Reset closes the bin and
// starts a new period.
type Recorder struct {
	mu   sync.Mutex
	bins map[uuid.UUID]*Summary
	now  func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{
		bins: make(map[uuid.UUID]*Summary),
		now:  time.Now,
	}
}

// Observe folds one request into the service's open bin.
func (r *Recorder) Observe(serviceID uuid.UUID, responseMillis int64, fault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bin, ok := r.bins[serviceID]
	if !ok {
		bin = &Summary{PeriodStart: r.now(), MinResponseMillis: responseMillis}
		r.bins[serviceID] = bin
	}
	bin.Requests++
	if fault {
		bin.Faults++
	} else {
		bin.Successes++
	}
	bin.SumResponseMillis += responseMillis
	if responseMillis < bin.MinResponseMillis {
		bin.MinResponseMillis = responseMillis
	}
	if responseMillis > bin.MaxResponseMillis {
		bin.MaxResponseMillis = responseMillis
	}
}

// Summary returns a copy of the open bin, nil when the service has seen no
// traffic this period.
func (r *Recorder) Summary(_ context.Context, serviceID uuid.UUID) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bin, ok := r.bins[serviceID]
	if !ok {
		return nil, nil
	}
	cp := *bin
	cp.PeriodEnd = r.now()
	return &cp, nil
}

// Reset drops the service's open bin so the next Observe starts a fresh
// period.
func (r *Recorder) Reset(serviceID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bins, serviceID)
}
