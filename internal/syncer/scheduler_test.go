package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"sales_targets/internal/config"
	"sales_targets/internal/iiko"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingSyncer struct {
	calls   atomic.Int32
	nilRng  atomic.Bool
	succeed bool
}

func (c *countingSyncer) Sync(ctx context.Context, rng *iiko.DateRange) bool {
	c.calls.Add(1)
	c.nilRng.Store(rng == nil)
	return c.succeed
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(config.Config{SyncSchedule: "every now and then"}, &countingSyncer{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSchedulerTriggersDefaultRangeSync(t *testing.T) {
	syncer := &countingSyncer{succeed: true}
	s, err := NewScheduler(config.Config{SyncSchedule: "@every 1s"}, syncer, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return syncer.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, syncer.nilRng.Load())
}

func TestSchedulerTickToleratesFailure(t *testing.T) {
	syncer := &countingSyncer{}
	s, err := NewScheduler(config.Config{SyncSchedule: "@hourly"}, syncer, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.tick()
	assert.Equal(t, int32(1), syncer.calls.Load())
}
