// Package metricsagg defines the boundary to the gateway's service metrics
// aggregator, which maintains rolled-up bins of per-service traffic
// counters.
package metricsagg

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Summary is one aggregated metrics bin for a local service.
type Summary struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	Requests  int64
	Successes int64
	Faults    int64

	MinResponseMillis int64
	MaxResponseMillis int64
	SumResponseMillis int64
}

// AvgResponseMillis returns the mean response time over the bin, zero when
// the bin saw no traffic.
func (s *Summary) AvgResponseMillis() int64 {
	if s.Requests == 0 {
		return 0
	}
	return s.SumResponseMillis / s.Requests
}

// Aggregator reads the current summary bin for a local service. A nil
// summary with nil error means no bin exists yet; callers skip the service.
//
//go:generate mockgen -destination=mocks/mock_aggregator.go -package=mocks github.com/gatewaymesh/uddi-reconciler/internal/metricsagg Aggregator
type Aggregator interface {
	Summary(ctx context.Context, serviceID uuid.UUID) (*Summary, error)
}
