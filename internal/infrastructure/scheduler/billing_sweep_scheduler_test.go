package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSweeper records the sweep calls it receives
type fakeSweeper struct {
	mu             sync.Mutex
	renewalBatches []int
	retryBackoffs  []time.Duration
	retryBatches   []int
	expiryGraces   []time.Duration
	expiryBatches  []int
	cleanupWindows []time.Duration

	renewErr error
}

func (f *fakeSweeper) RunRenewals(ctx context.Context, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewalBatches = append(f.renewalBatches, batchSize)
	if f.renewErr != nil {
		return 0, f.renewErr
	}
	return 2, nil
}

func (f *fakeSweeper) RunPaymentRetries(ctx context.Context, backoff time.Duration, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryBackoffs = append(f.retryBackoffs, backoff)
	f.retryBatches = append(f.retryBatches, batchSize)
	return 1, nil
}

func (f *fakeSweeper) ExpireOverdue(ctx context.Context, grace time.Duration, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiryGraces = append(f.expiryGraces, grace)
	f.expiryBatches = append(f.expiryBatches, batchSize)
	return 0, nil
}

func (f *fakeSweeper) CleanupUsage(ctx context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanupWindows = append(f.cleanupWindows, retention)
	return 12, nil
}

// fakeTrialExpirer records trial expiry calls
type fakeTrialExpirer struct {
	mu     sync.Mutex
	limits []int
	err    error
}

func (f *fakeTrialExpirer) ExpireTrials(ctx context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func newSweepScheduler(sweeper *fakeSweeper, trials *fakeTrialExpirer, cfg BillingSweepSchedulerConfig) *BillingSweepScheduler {
	return NewBillingSweepScheduler(sweeper, trials, zap.NewNop(), cfg)
}

func TestDefaultBillingSweepSchedulerConfig(t *testing.T) {
	cfg := DefaultBillingSweepSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 6*time.Hour, cfg.RetryBackoff)
	assert.Equal(t, 72*time.Hour, cfg.GracePeriod)
	assert.Equal(t, 6*time.Hour, cfg.TrialSweepInterval)
	assert.Equal(t, 3, cfg.CleanupHour)
	assert.Equal(t, 90*24*time.Hour, cfg.UsageRetention)
}

func TestBillingSweepScheduler_ExecuteSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	trials := &fakeTrialExpirer{}

	cfg := DefaultBillingSweepSchedulerConfig()
	cfg.BatchSize = 25
	cfg.RetryBackoff = 2 * time.Hour
	cfg.GracePeriod = 48 * time.Hour

	s := newSweepScheduler(sweeper, trials, cfg)
	s.executeSweep(context.Background())

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	require.Len(t, sweeper.renewalBatches, 1)
	assert.Equal(t, 25, sweeper.renewalBatches[0])
	require.Len(t, sweeper.retryBackoffs, 1)
	assert.Equal(t, 2*time.Hour, sweeper.retryBackoffs[0])
	assert.Equal(t, 25, sweeper.retryBatches[0])
	require.Len(t, sweeper.expiryGraces, 1)
	assert.Equal(t, 48*time.Hour, sweeper.expiryGraces[0])
	assert.Equal(t, 25, sweeper.expiryBatches[0])

	assert.NotNil(t, s.LastSweepAt())
}

func TestBillingSweepScheduler_SweepContinuesPastErrors(t *testing.T) {
	sweeper := &fakeSweeper{renewErr: errors.New("gateway unreachable")}
	trials := &fakeTrialExpirer{}

	s := newSweepScheduler(sweeper, trials, DefaultBillingSweepSchedulerConfig())
	s.executeSweep(context.Background())

	// A failing renewal pass must not stop the retry and expiry passes
	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.Len(t, sweeper.renewalBatches, 1)
	assert.Len(t, sweeper.retryBatches, 1)
	assert.Len(t, sweeper.expiryBatches, 1)
}

func TestBillingSweepScheduler_ExecuteTrialSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	trials := &fakeTrialExpirer{}

	cfg := DefaultBillingSweepSchedulerConfig()
	cfg.BatchSize = 10

	s := newSweepScheduler(sweeper, trials, cfg)
	s.executeTrialSweep(context.Background())

	trials.mu.Lock()
	defer trials.mu.Unlock()
	require.Len(t, trials.limits, 1)
	assert.Equal(t, 10, trials.limits[0])
}

func TestBillingSweepScheduler_ExecuteCleanup(t *testing.T) {
	sweeper := &fakeSweeper{}
	trials := &fakeTrialExpirer{}

	cfg := DefaultBillingSweepSchedulerConfig()
	cfg.UsageRetention = 30 * 24 * time.Hour

	s := newSweepScheduler(sweeper, trials, cfg)
	s.executeCleanup(context.Background())

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	require.Len(t, sweeper.cleanupWindows, 1)
	assert.Equal(t, 30*24*time.Hour, sweeper.cleanupWindows[0])
}

func TestBillingSweepScheduler_DisabledDoesNotStart(t *testing.T) {
	cfg := DefaultBillingSweepSchedulerConfig()
	cfg.Enabled = false

	s := newSweepScheduler(&fakeSweeper{}, &fakeTrialExpirer{}, cfg)
	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.TriggerImmediateSweep(context.Background()), ErrSchedulerNotRunning)
}

func TestBillingSweepScheduler_StartStop(t *testing.T) {
	cfg := DefaultBillingSweepSchedulerConfig()
	// Long intervals so the loops stay idle during the test
	cfg.SweepInterval = time.Hour
	cfg.TrialSweepInterval = time.Hour

	s := newSweepScheduler(&fakeSweeper{}, &fakeTrialExpirer{}, cfg)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	// Starting again is a no-op
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())

	// Stopping again is a no-op
	require.NoError(t, s.Stop(stopCtx))
}

func TestBillingSweepScheduler_TriggerImmediateSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	trials := &fakeTrialExpirer{}

	cfg := DefaultBillingSweepSchedulerConfig()
	cfg.SweepInterval = time.Hour
	cfg.TrialSweepInterval = time.Hour

	s := newSweepScheduler(sweeper, trials, cfg)
	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	require.NoError(t, s.TriggerImmediateSweep(context.Background()))

	// The sweep runs on a goroutine; wait for it to land
	deadline := time.After(2 * time.Second)
	for {
		sweeper.mu.Lock()
		n := len(sweeper.renewalBatches)
		sweeper.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("immediate sweep never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
