package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// funcExecutor adapts a function to the JobExecutor interface
type funcExecutor struct {
	fn func(ctx context.Context, job *Job) error
}

func (e *funcExecutor) Execute(ctx context.Context, job *Job) error {
	return e.fn(ctx, job)
}

func TestJob_Lifecycle(t *testing.T) {
	tenantID := uuid.New()
	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	job := NewJob(&tenantID, RefreshTypeOverview, periodStart, periodEnd, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, RefreshTypeOverview, job.RefreshType)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestJob_FailAndRetry(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(&tenantID, RefreshTypeRevenueTrend, time.Now().AddDate(0, 0, -30), time.Now(), 2)

	job.Start()
	job.Fail("aggregation query timed out")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "aggregation query timed out", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(5 * time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)
	assert.True(t, job.NextRetryAt.After(time.Now()))

	// Exhaust the retry budget
	job.Fail("still timing out")
	job.ScheduleRetry(5 * time.Minute)
	job.Fail("still timing out")
	assert.Equal(t, 2, job.RetryCount)
	assert.False(t, job.ShouldRetry())
}

func TestAllRefreshTypes(t *testing.T) {
	types := AllRefreshTypes()

	require.Len(t, types, 4)
	assert.Contains(t, types, RefreshTypeOverview)
	assert.Contains(t, types, RefreshTypeRevenueTrend)
	assert.Contains(t, types, RefreshTypeTopProducts)
	assert.Contains(t, types, RefreshTypeVendorRanking)
}

func TestScheduler_SubmitJob_NotRunning(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &funcExecutor{}, zap.NewNop())

	tenantID := uuid.New()
	job := NewJob(&tenantID, RefreshTypeOverview, time.Now().AddDate(0, 0, -30), time.Now(), 3)

	err := s.SubmitJob(job)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_ExecutesSubmittedJobs(t *testing.T) {
	executed := make(chan *Job, 1)
	executor := &funcExecutor{fn: func(ctx context.Context, job *Job) error {
		executed <- job
		return nil
	}}

	cfg := DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 1
	s := NewScheduler(cfg, executor, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	tenantID := uuid.New()
	require.NoError(t, s.ScheduleRefresh(&tenantID, RefreshTypeTopProducts, time.Now().AddDate(0, 0, -7), time.Now()))

	select {
	case job := <-executed:
		assert.Equal(t, RefreshTypeTopProducts, job.RefreshType)
		require.NotNil(t, job.TenantID)
		assert.Equal(t, tenantID, *job.TenantID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	executor := &funcExecutor{fn: func(ctx context.Context, job *Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	}}

	cfg := DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 1
	cfg.RetryDelay = 10 * time.Millisecond
	s := NewScheduler(cfg, executor, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	tenantID := uuid.New()
	require.NoError(t, s.ScheduleRefresh(&tenantID, RefreshTypeOverview, time.Now().AddDate(0, 0, -30), time.Now()))

	select {
	case <-done:
		mu.Lock()
		assert.Equal(t, 2, attempts)
		mu.Unlock()
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestScheduler_ScheduleDailyRefresh(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[RefreshType]*Job)
	all := make(chan struct{})

	executor := &funcExecutor{fn: func(ctx context.Context, job *Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen[job.RefreshType] = job
		if len(seen) == len(AllRefreshTypes()) {
			close(all)
		}
		return nil
	}}

	cfg := DefaultSchedulerConfig()
	s := NewScheduler(cfg, executor, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	tenantID := uuid.New()
	require.NoError(t, s.ScheduleDailyRefresh(&tenantID))

	select {
	case <-all:
	case <-time.After(2 * time.Second):
		t.Fatal("not all refresh types were executed")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, refreshType := range AllRefreshTypes() {
		job, ok := seen[refreshType]
		require.True(t, ok, "missing job for %s", refreshType)
		require.NotNil(t, job.TenantID)
		assert.Equal(t, tenantID, *job.TenantID)
		// The daily refresh recomputes the standard trailing window
		days := job.PeriodEnd.Sub(job.PeriodStart).Hours() / 24
		assert.InDelta(t, float64(dashboardWindowDays), days, 1.1)
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &funcExecutor{fn: func(ctx context.Context, job *Job) error {
		return nil
	}}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))

	tenantID := uuid.New()
	err := s.ScheduleRefresh(&tenantID, RefreshTypeOverview, time.Now().AddDate(0, 0, -30), time.Now())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}
