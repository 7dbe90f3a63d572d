package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/repository"
)

type fakeBookingRepo struct {
	repository.BookingRepository

	mu       sync.Mutex
	bookings map[string]*domain.Booking
	failList bool
}

func newFakeBookingRepo(bookings ...domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[string]*domain.Booking)}
	for i := range bookings {
		b := bookings[i]
		repo.bookings[b.ID] = &b
	}
	return repo
}

func (r *fakeBookingRepo) ListExpiring(_ context.Context, now time.Time, warningWindow time.Duration) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errors.New("list failed")
	}
	cutoff := now.Add(warningWindow)
	var result []domain.Booking
	for _, b := range r.bookings {
		if b.Status != domain.BookingStatusActive || b.NotificationSent {
			continue
		}
		if b.EndTime.After(now) && !b.EndTime.After(cutoff) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) MarkNotificationSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return pgx.ErrNoRows
	}
	b.NotificationSent = true
	return nil
}

func (r *fakeBookingRepo) CompleteOverdue(_ context.Context, now time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Booking
	for _, b := range r.bookings {
		if b.Status == domain.BookingStatusActive && b.EndTime.Before(now) {
			b.Status = domain.BookingStatusCompleted
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) status(id string) domain.BookingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

type fakeSlotRepo struct {
	repository.SlotRepository
}

func (r *fakeSlotRepo) GetByID(_ context.Context, id string) (*domain.ParkingSlot, error) {
	return &domain.ParkingSlot{ID: id, SlotNumber: "A01"}, nil
}

type fakeNotificationRepo struct {
	repository.NotificationRepository

	mu      sync.Mutex
	deletes []time.Time
	fail    bool
}

func (r *fakeNotificationRepo) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errors.New("delete failed")
	}
	r.deletes = append(r.deletes, cutoff)
	return 3, nil
}

func (r *fakeNotificationRepo) deleteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deletes)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testConfig() config.ReconcilerConfig {
	return config.ReconcilerConfig{
		IntervalMinutes:       5,
		ExpiryWarningMinutes:  15,
		NotificationRetention: 30,
		CleanupHourUTC:        2,
	}
}

func newTestWorker(bookings *fakeBookingRepo, notifications *fakeNotificationRepo, dispatcher events.Dispatcher, now time.Time) *ExpiryWorker {
	w := NewExpiryWorker(ExpiryWorkerDependencies{
		BookingRepo:      bookings,
		SlotRepo:         &fakeSlotRepo{},
		NotificationRepo: notifications,
		Dispatcher:       dispatcher,
		Config:           testConfig(),
		Metrics:          observability.NewMetrics(),
	})
	w.now = func() time.Time { return now }
	return w
}

func TestWarningPassIsOneShot(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings := newFakeBookingRepo(domain.Booking{
		ID:            "b1",
		UserID:        "u1",
		ParkingSlotID: "s1",
		EndTime:       now.Add(10 * time.Minute),
		Status:        domain.BookingStatusActive,
	})
	dispatcher := &recordingDispatcher{}
	w := newTestWorker(bookings, &fakeNotificationRepo{}, dispatcher, now)

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())

	warnings := dispatcher.byType(events.EventBookingExpiryWarning)
	require.Len(t, warnings, 1, "the same booking must be warned exactly once")

	payload, ok := warnings[0].Payload.(events.ExpiryWarningPayload)
	require.True(t, ok)
	assert.Equal(t, "A01", payload.SlotNumber)
	assert.Equal(t, 10, payload.MinutesRemaining)
}

func TestWarningPassSkipsBookingsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings := newFakeBookingRepo(
		domain.Booking{
			ID: "far", UserID: "u1", ParkingSlotID: "s1",
			EndTime: now.Add(2 * time.Hour), Status: domain.BookingStatusActive,
		},
		domain.Booking{
			ID: "pending", UserID: "u2", ParkingSlotID: "s2",
			EndTime: now.Add(5 * time.Minute), Status: domain.BookingStatusPending,
		},
	)
	dispatcher := &recordingDispatcher{}
	w := newTestWorker(bookings, &fakeNotificationRepo{}, dispatcher, now)

	w.RunOnce(context.Background())

	assert.Empty(t, dispatcher.byType(events.EventBookingExpiryWarning))
}

func TestOverduePassCompletesExpiredBookings(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings := newFakeBookingRepo(
		domain.Booking{
			ID: "overdue", UserID: "u1", ParkingSlotID: "s1",
			EndTime: now.Add(-time.Minute), Status: domain.BookingStatusActive,
		},
		domain.Booking{
			ID: "running", UserID: "u2", ParkingSlotID: "s2",
			EndTime: now.Add(time.Hour), Status: domain.BookingStatusActive,
		},
		domain.Booking{
			ID: "cancelled", UserID: "u3", ParkingSlotID: "s3",
			EndTime: now.Add(-time.Hour), Status: domain.BookingStatusCancelled,
		},
	)
	w := newTestWorker(bookings, &fakeNotificationRepo{}, &recordingDispatcher{}, now)

	w.RunOnce(context.Background())

	assert.Equal(t, domain.BookingStatusCompleted, bookings.status("overdue"))
	assert.Equal(t, domain.BookingStatusActive, bookings.status("running"))
	assert.Equal(t, domain.BookingStatusCancelled, bookings.status("cancelled"))
}

func TestPassesAreIsolated(t *testing.T) {
	// A failing warning pass must not block the overdue pass.
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings := newFakeBookingRepo(domain.Booking{
		ID: "overdue", UserID: "u1", ParkingSlotID: "s1",
		EndTime: now.Add(-time.Minute), Status: domain.BookingStatusActive,
	})
	bookings.failList = true
	w := newTestWorker(bookings, &fakeNotificationRepo{}, &recordingDispatcher{}, now)

	w.RunOnce(context.Background())

	assert.Equal(t, domain.BookingStatusCompleted, bookings.status("overdue"))
}

func TestRetentionPassGatedOnHour(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	bookings := newFakeBookingRepo()

	// Outside the cleanup hour nothing is deleted.
	w := newTestWorker(bookings, notifications, &recordingDispatcher{}, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	w.RunOnce(context.Background())
	assert.Equal(t, 0, notifications.deleteCount())

	// At the cleanup hour the purge runs once.
	cleanupTime := time.Date(2026, 8, 28, 2, 5, 0, 0, time.UTC)
	w.now = func() time.Time { return cleanupTime }
	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	require.Equal(t, 1, notifications.deleteCount(), "retention runs at most once per day")

	expectedCutoff := cleanupTime.Add(-30 * 24 * time.Hour)
	assert.Equal(t, expectedCutoff, notifications.deletes[0])

	// The next day it runs again.
	w.now = func() time.Time { return cleanupTime.Add(24 * time.Hour) }
	w.RunOnce(context.Background())
	assert.Equal(t, 2, notifications.deleteCount())
}

func TestRetentionPassRetriesAfterFailure(t *testing.T) {
	notifications := &fakeNotificationRepo{fail: true}
	w := newTestWorker(newFakeBookingRepo(), notifications, &recordingDispatcher{}, time.Date(2026, 8, 28, 2, 0, 0, 0, time.UTC))

	w.RunOnce(context.Background())
	assert.Equal(t, 0, notifications.deleteCount())

	notifications.fail = false
	w.RunOnce(context.Background())
	assert.Equal(t, 1, notifications.deleteCount(), "a failed purge is retried on the next tick")
}

func TestRunOnceSkipsWhenAlreadyRunning(t *testing.T) {
	w := newTestWorker(newFakeBookingRepo(), &fakeNotificationRepo{}, &recordingDispatcher{}, time.Now())

	w.running.Store(true)
	w.RunOnce(context.Background())

	// Nothing ran, flag untouched.
	assert.True(t, w.running.Load())
}
