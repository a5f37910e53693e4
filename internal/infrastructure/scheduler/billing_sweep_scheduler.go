package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SubscriptionSweeper is the slice of the billing service the sweep drives
type SubscriptionSweeper interface {
	RunRenewals(ctx context.Context, batchSize int) (int, error)
	RunPaymentRetries(ctx context.Context, backoff time.Duration, batchSize int) (int, error)
	ExpireOverdue(ctx context.Context, grace time.Duration, batchSize int) (int, error)
	CleanupUsage(ctx context.Context, retention time.Duration) (int64, error)
}

// TrialExpirer moves tenants whose trial window has lapsed out of TRIAL
type TrialExpirer interface {
	ExpireTrials(ctx context.Context, limit int) (int, error)
}

// BillingSweepSchedulerConfig holds configuration for the billing sweeps
type BillingSweepSchedulerConfig struct {
	// Enabled determines if the sweeps run at all
	Enabled bool

	// SweepInterval is how often the renewal/retry/expiry sweep runs
	SweepInterval time.Duration

	// BatchSize is the maximum subscriptions or payments touched per pass
	BatchSize int

	// RetryBackoff is the delay before a failed payment is retried again
	RetryBackoff time.Duration

	// GracePeriod is how long past its period end a subscription may stay
	// unpaid before the sweep expires it
	GracePeriod time.Duration

	// TrialSweepInterval is how often ended tenant trials are expired
	TrialSweepInterval time.Duration

	// CleanupHour is the hour (0-23) when old usage counters are removed
	CleanupHour int

	// UsageRetention is how long closed-period usage counters are kept
	UsageRetention time.Duration

	// SweepTimeout is the maximum time a single sweep pass can run
	SweepTimeout time.Duration
}

// DefaultBillingSweepSchedulerConfig returns default sweep configuration
func DefaultBillingSweepSchedulerConfig() BillingSweepSchedulerConfig {
	return BillingSweepSchedulerConfig{
		Enabled:            true,
		SweepInterval:      time.Hour,
		BatchSize:          100,
		RetryBackoff:       6 * time.Hour,
		GracePeriod:        72 * time.Hour,
		TrialSweepInterval: 6 * time.Hour,
		CleanupHour:        3, // 3 AM
		UsageRetention:     90 * 24 * time.Hour,
		SweepTimeout:       10 * time.Minute,
	}
}

// BillingSweepScheduler runs the recurring billing work: charging due
// renewals, retrying failed payments, expiring lapsed subscriptions and
// ended trials, and cleaning up old usage counters. Every pass is
// batch-bounded, so a large backlog drains over successive runs instead
// of monopolizing one.
type BillingSweepScheduler struct {
	subscriptions SubscriptionSweeper
	tenants       TrialExpirer
	logger        *zap.Logger
	config        BillingSweepSchedulerConfig
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
	lastSweepAt   *time.Time
}

// NewBillingSweepScheduler creates a new billing sweep scheduler
func NewBillingSweepScheduler(
	subscriptions SubscriptionSweeper,
	tenants TrialExpirer,
	logger *zap.Logger,
	config BillingSweepSchedulerConfig,
) *BillingSweepScheduler {
	return &BillingSweepScheduler{
		subscriptions: subscriptions,
		tenants:       tenants,
		logger:        logger,
		config:        config,
	}
}

// Start starts the billing sweep scheduler
func (s *BillingSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.wg.Add(1)
	go s.runTrialLoop(ctx)

	s.wg.Add(1)
	go s.runCleanupLoop(ctx)

	s.logger.Info("Billing sweep scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Duration("retry_backoff", s.config.RetryBackoff),
		zap.Duration("trial_sweep_interval", s.config.TrialSweepInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *BillingSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop runs the renewal/retry/expiry sweep on a fixed interval
func (s *BillingSweepScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	// Run one sweep shortly after startup to catch work that accrued
	// while the process was down
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Minute):
		s.executeSweep(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Billing sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// runTrialLoop expires ended tenant trials on its own cadence
func (s *BillingSweepScheduler) runTrialLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TrialSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Trial sweep loop stopping")
			return
		case <-ticker.C:
			s.executeTrialSweep(ctx)
		}
	}
}

// runCleanupLoop removes old usage counters once per day at the configured hour
func (s *BillingSweepScheduler) runCleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		// Calculate time until the next cleanup run
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), s.config.CleanupHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}
		delay := time.Until(nextRun)

		s.logger.Info("Usage cleanup scheduled",
			zap.Time("next_run", nextRun),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			s.logger.Debug("Cleanup loop stopping")
			return
		case <-time.After(delay):
			s.executeCleanup(ctx)
		}
	}
}

// executeSweep runs one renewal, retry, and expiry pass
func (s *BillingSweepScheduler) executeSweep(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastSweepAt = &now
	s.mu.Unlock()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	start := time.Now()

	renewed, err := s.subscriptions.RunRenewals(sweepCtx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Renewal sweep finished with errors",
			zap.Int("renewed", renewed),
			zap.Error(err),
		)
	}

	recovered, err := s.subscriptions.RunPaymentRetries(sweepCtx, s.config.RetryBackoff, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Payment retry sweep finished with errors",
			zap.Int("recovered", recovered),
			zap.Error(err),
		)
	}

	expired, err := s.subscriptions.ExpireOverdue(sweepCtx, s.config.GracePeriod, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Expiry sweep finished with errors",
			zap.Int("expired", expired),
			zap.Error(err),
		)
	}

	s.logger.Info("Billing sweep completed",
		zap.Int("renewed", renewed),
		zap.Int("recovered", recovered),
		zap.Int("expired", expired),
		zap.Duration("duration", time.Since(start)),
	)
}

// executeTrialSweep expires tenants whose trial window has ended
func (s *BillingSweepScheduler) executeTrialSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	expired, err := s.tenants.ExpireTrials(sweepCtx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Trial sweep finished with errors",
			zap.Int("expired", expired),
			zap.Error(err),
		)
		return
	}

	if expired > 0 {
		s.logger.Info("Trial sweep completed", zap.Int("expired", expired))
	} else {
		s.logger.Debug("Trial sweep completed with nothing to do")
	}
}

// executeCleanup removes usage counters past the retention window
func (s *BillingSweepScheduler) executeCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	removed, err := s.subscriptions.CleanupUsage(cleanupCtx, s.config.UsageRetention)
	if err != nil {
		s.logger.Error("Usage cleanup failed", zap.Error(err))
		return
	}

	s.logger.Info("Usage cleanup completed", zap.Int64("removed", removed))
}

// TriggerImmediateSweep runs a sweep pass now instead of waiting for the ticker
func (s *BillingSweepScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1) // Track the goroutine
	s.mu.Unlock()

	s.logger.Info("Triggering immediate billing sweep")

	// Run in a goroutine to not block
	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// LastSweepAt returns when the last sweep pass started
func (s *BillingSweepScheduler) LastSweepAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweepAt
}

// IsRunning returns whether the scheduler is running
func (s *BillingSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
