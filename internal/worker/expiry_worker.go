package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/repository"
)

// ExpiryWorker reconciles booking lifecycle state on a fixed interval. Each
// tick runs three passes: expiry warnings, overdue completion, and (once per
// day) notification retention cleanup. Passes are isolated; a failing pass
// is logged and the others still run.
type ExpiryWorker struct {
	bookings repository.BookingRepository
	slots    repository.SlotRepository

	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	cfg           config.ReconcilerConfig
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time

	running atomic.Bool

	mu             sync.Mutex
	lastCleanupDay string
}

// ExpiryWorkerDependencies bundles collaborators for the worker.
type ExpiryWorkerDependencies struct {
	BookingRepo      repository.BookingRepository
	SlotRepo         repository.SlotRepository
	NotificationRepo repository.NotificationRepository
	Dispatcher       events.Dispatcher
	Config           config.ReconcilerConfig
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// NewExpiryWorker constructs the worker.
func NewExpiryWorker(deps ExpiryWorkerDependencies) *ExpiryWorker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryWorker{
		bookings:      deps.BookingRepo,
		slots:         deps.SlotRepo,
		notifications: deps.NotificationRepo,
		dispatcher:    deps.Dispatcher,
		cfg:           deps.Config,
		logger:        logger,
		metrics:       deps.Metrics,
		now:           time.Now,
	}
}

// Run ticks until the context is cancelled. One reconciliation is executed
// immediately on start.
func (w *ExpiryWorker) Run(ctx context.Context) {
	interval := w.cfg.Interval()
	w.logger.Info("expiry worker started",
		zap.Duration("interval", interval),
		zap.Duration("warning_window", w.cfg.WarningWindow()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes one reconciliation. Overlapping invocations are skipped:
// if a previous run is still in flight, this call returns immediately.
func (w *ExpiryWorker) RunOnce(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Warn("reconciliation already in flight, skipping tick")
		return
	}
	defer w.running.Store(false)

	if err := w.warningPass(ctx); err != nil {
		w.logger.Error("expiry warning pass failed", zap.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	if err := w.overduePass(ctx); err != nil {
		w.logger.Error("overdue completion pass failed", zap.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	if err := w.retentionPass(ctx); err != nil {
		w.logger.Error("notification retention pass failed", zap.Error(err))
	}
}

// warningPass emits a one-shot expiry warning for ACTIVE bookings ending
// within the warning window. The notification flag is flipped first, so a
// failed event emission cannot cause duplicate warnings on the next tick.
func (w *ExpiryWorker) warningPass(ctx context.Context) error {
	now := w.now()
	expiring, err := w.bookings.ListExpiring(ctx, now, w.cfg.WarningWindow())
	if err != nil {
		return err
	}

	warned := 0
	for _, booking := range expiring {
		if ctx.Err() != nil {
			break
		}
		if err := w.bookings.MarkNotificationSent(ctx, booking.ID); err != nil {
			w.logger.Error("failed to flag expiry warning",
				zap.String("booking_id", booking.ID), zap.Error(err))
			continue
		}

		slotNumber := booking.ParkingSlotID
		if slot, err := w.slots.GetByID(ctx, booking.ParkingSlotID); err == nil {
			slotNumber = slot.SlotNumber
		}

		minutesRemaining := int(booking.EndTime.Sub(now).Round(time.Minute) / time.Minute)
		if w.dispatcher != nil {
			_ = w.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventBookingExpiryWarning,
				BookingID: booking.ID,
				UserID:    booking.UserID,
				Timestamp: now,
				Payload: events.ExpiryWarningPayload{
					SlotNumber:       slotNumber,
					EndTime:          booking.EndTime,
					MinutesRemaining: minutesRemaining,
				},
			})
		}
		warned++
	}

	if warned > 0 {
		w.logger.Info("expiry warnings sent", zap.Int("count", warned))
	}
	w.metrics.RecordWorkerPass("expiry_warning", warned)
	return nil
}

// overduePass force-completes ACTIVE bookings whose end time has passed.
// The batch runs as one statement so a crashed worker never leaves a
// half-completed set.
func (w *ExpiryWorker) overduePass(ctx context.Context) error {
	completed, err := w.bookings.CompleteOverdue(ctx, w.now())
	if err != nil {
		return err
	}

	for _, booking := range completed {
		w.logger.Info("booking auto-completed",
			zap.String("booking_id", booking.ID),
			zap.Time("end_time", booking.EndTime))
	}
	w.metrics.RecordWorkerPass("overdue_complete", len(completed))
	return nil
}

// retentionPass hard-deletes read notifications older than the retention
// window. It runs at most once per UTC day, gated on the configured hour.
func (w *ExpiryWorker) retentionPass(ctx context.Context) error {
	now := w.now().UTC()
	if now.Hour() != w.cfg.CleanupHourUTC {
		return nil
	}

	day := now.Format("2006-01-02")
	w.mu.Lock()
	if w.lastCleanupDay == day {
		w.mu.Unlock()
		return nil
	}
	w.lastCleanupDay = day
	w.mu.Unlock()

	cutoff := now.Add(-w.cfg.RetentionWindow())
	deleted, err := w.notifications.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		// Allow a retry later in the same hour.
		w.mu.Lock()
		w.lastCleanupDay = ""
		w.mu.Unlock()
		return err
	}

	if deleted > 0 {
		w.logger.Info("old notifications purged",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff))
	}
	w.metrics.RecordWorkerPass("notification_retention", int(deleted))
	return nil
}
