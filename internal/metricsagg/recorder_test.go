package metricsagg

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	serviceID := uuid.New()

	// No traffic yet, no bin.
	sum, err := r.Summary(context.Background(), serviceID)
	require.NoError(t, err)
	assert.Nil(t, sum)

	r.Observe(serviceID, 100, false)
	r.Observe(serviceID, 300, false)
	r.Observe(serviceID, 50, true)

	sum, err = r.Summary(context.Background(), serviceID)
	require.NoError(t, err)
	require.NotNil(t, sum)

	assert.Equal(t, int64(3), sum.Requests)
	assert.Equal(t, int64(2), sum.Successes)
	assert.Equal(t, int64(1), sum.Faults)
	assert.Equal(t, int64(50), sum.MinResponseMillis)
	assert.Equal(t, int64(300), sum.MaxResponseMillis)
	assert.Equal(t, int64(450), sum.SumResponseMillis)
	assert.Equal(t, int64(150), sum.AvgResponseMillis())
	assert.False(t, sum.PeriodStart.IsZero())
	assert.False(t, sum.PeriodEnd.Before(sum.PeriodStart))

	r.Reset(serviceID)
	sum, err = r.Summary(context.Background(), serviceID)
	require.NoError(t, err)
	assert.Nil(t, sum)
}

func TestSummary_AvgResponseMillis_NoTraffic(t *testing.T) {
	t.Parallel()

	var s Summary
	assert.Equal(t, int64(0), s.AvgResponseMillis())
}
