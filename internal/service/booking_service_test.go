package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

type memBookingRepo struct {
	repository.BookingRepository

	mu       sync.Mutex
	seq      int
	bookings map[string]*domain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*domain.Booking)}
}

func (r *memBookingRepo) add(booking domain.Booking) *domain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == "" {
		r.seq++
		booking.ID = fmt.Sprintf("booking-%d", r.seq)
	}
	stored := booking
	r.bookings[stored.ID] = &stored
	return &stored
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *booking
	return &copied, nil
}

func (r *memBookingRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok || booking.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	copied := *booking
	return &copied, nil
}

func (r *memBookingRepo) ListByUser(_ context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Booking
	for _, booking := range r.bookings {
		if booking.UserID != userID {
			continue
		}
		if status != nil && booking.Status != *status {
			continue
		}
		result = append(result, *booking)
	}
	return result, nil
}

func (r *memBookingRepo) ListAll(_ context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Booking
	for _, booking := range r.bookings {
		if status != nil && booking.Status != *status {
			continue
		}
		result = append(result, *booking)
	}
	return result, nil
}

func (r *memBookingRepo) findConflictLocked(slotID string, start, end time.Time, excludeID *string) *domain.Booking {
	for _, booking := range r.bookings {
		if booking.ParkingSlotID != slotID || booking.IsTerminal() {
			continue
		}
		if excludeID != nil && booking.ID == *excludeID {
			continue
		}
		if booking.Overlaps(start, end) {
			copied := *booking
			return &copied
		}
	}
	return nil
}

func (r *memBookingRepo) FindConflicting(_ context.Context, slotID string, start, end time.Time, excludeID *string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findConflictLocked(slotID, start, end, excludeID), nil
}

func (r *memBookingRepo) CreateIfSlotFree(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conflict := r.findConflictLocked(booking.ParkingSlotID, booking.StartTime, booking.EndTime, nil); conflict != nil {
		return conflict, nil
	}
	r.seq++
	booking.ID = fmt.Sprintf("booking-%d", r.seq)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	r.bookings[stored.ID] = &stored
	return nil, nil
}

func (r *memBookingRepo) ExtendIfSlotFree(_ context.Context, booking *domain.Booking, additionalHours int, additionalCost decimal.Decimal) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	newEnd := booking.EndTime.Add(time.Duration(additionalHours) * time.Hour)
	if conflict := r.findConflictLocked(booking.ParkingSlotID, booking.EndTime, newEnd, &booking.ID); conflict != nil {
		return conflict, nil
	}
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored.EndTime = newEnd
	stored.DurationHours += additionalHours
	stored.TotalAmount = stored.TotalAmount.Add(additionalCost)
	stored.Status = domain.BookingStatusExtended
	stored.PaymentStatus = domain.PaymentStatePending
	stored.UpdatedAt = time.Now()
	*booking = *stored
	return nil, nil
}

func (r *memBookingRepo) Update(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = booking.Status
	stored.PaymentStatus = booking.PaymentStatus
	stored.NotificationSent = booking.NotificationSent
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memBookingRepo) MarkNotificationSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking, ok := r.bookings[id]; ok {
		booking.NotificationSent = true
	}
	return nil
}

func (r *memBookingRepo) ListExpiring(_ context.Context, now time.Time, warningWindow time.Duration) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(warningWindow)
	var result []domain.Booking
	for _, booking := range r.bookings {
		if booking.Status != domain.BookingStatusActive || booking.NotificationSent {
			continue
		}
		if booking.EndTime.After(now) && !booking.EndTime.After(cutoff) {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (r *memBookingRepo) CompleteOverdue(_ context.Context, now time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Booking
	for _, booking := range r.bookings {
		if booking.Status == domain.BookingStatusActive && booking.EndTime.Before(now) {
			booking.Status = domain.BookingStatusCompleted
			booking.UpdatedAt = now
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (r *memBookingRepo) HasNonTerminalForSlot(_ context.Context, slotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.ParkingSlotID == slotID && !booking.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepo) FindCurrentForSlot(_ context.Context, slotID string, now time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.ParkingSlotID == slotID && booking.Status == domain.BookingStatusActive &&
			!booking.StartTime.After(now) && booking.EndTime.After(now) {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memBookingRepo) FindLatestByLicensePlate(_ context.Context, plate string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Booking
	for _, booking := range r.bookings {
		if booking.LicensePlate != plate {
			continue
		}
		if latest == nil || booking.CreatedAt.After(latest.CreatedAt) {
			latest = booking
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

type memSlotRepo struct {
	repository.SlotRepository

	mu    sync.Mutex
	slots map[string]*domain.ParkingSlot
}

func newMemSlotRepo(slots ...domain.ParkingSlot) *memSlotRepo {
	repo := &memSlotRepo{slots: make(map[string]*domain.ParkingSlot)}
	for i := range slots {
		slot := slots[i]
		repo.slots[slot.ID] = &slot
	}
	return repo
}

func (r *memSlotRepo) GetByID(_ context.Context, id string) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *slot
	return &copied, nil
}

func (r *memSlotRepo) GetBySlotNumber(_ context.Context, number string) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range r.slots {
		if slot.SlotNumber == number {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) Publish(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) Subscribe(events.EventType, events.EventHandler) {}

func (c *capturedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func testSlot() domain.ParkingSlot {
	return domain.ParkingSlot{
		ID:         "slot-1",
		SlotNumber: "A01",
		Zone:       "A",
		SlotType:   domain.SlotTypeRegular,
		HourlyRate: decimal.NewFromInt(5),
		IsActive:   true,
	}
}

func newTestBookingService(bookings *memBookingRepo, slots *memSlotRepo) (*BookingService, *capturedEvents) {
	dispatcher := &capturedEvents{}
	svc := NewBookingService(BookingDependencies{
		BookingRepo: bookings,
		SlotRepo:    slots,
		Dispatcher:  dispatcher,
	})
	return svc, dispatcher
}

func TestCheckAvailabilityFreeSlot(t *testing.T) {
	bookings := newMemBookingRepo()
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	result, err := svc.CheckAvailability(context.Background(), "slot-1", start, 3, nil)
	require.NoError(t, err)

	assert.True(t, result.Available)
	assert.True(t, result.EstimatedCost.Equal(decimal.NewFromInt(15)), "3h at 5/h")
	assert.Nil(t, result.Conflicting)
}

func TestCheckAvailabilityBackToBackWindows(t *testing.T) {
	bookings := newMemBookingRepo()
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		Status:        domain.BookingStatusActive,
	})
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	// A booking starting exactly at the previous end does not conflict.
	result, err := svc.CheckAvailability(context.Background(), "slot-1", start.Add(2*time.Hour), 1, nil)
	require.NoError(t, err)
	assert.True(t, result.Available)

	// One minute before the end still conflicts.
	result, err = svc.CheckAvailability(context.Background(), "slot-1", start.Add(119*time.Minute), 1, nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "slot is already booked for the selected time period", result.Message)
	require.NotNil(t, result.Conflicting)
}

func TestCheckAvailabilityInactiveSlot(t *testing.T) {
	slot := testSlot()
	slot.IsActive = false
	svc, _ := newTestBookingService(newMemBookingRepo(), newMemSlotRepo(slot))

	result, err := svc.CheckAvailability(context.Background(), "slot-1", time.Now(), 2, nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "parking slot not found or inactive", result.Message)
	assert.True(t, result.EstimatedCost.IsZero())
}

func TestCheckAvailabilityUnknownSlot(t *testing.T) {
	svc, _ := newTestBookingService(newMemBookingRepo(), newMemSlotRepo())

	result, err := svc.CheckAvailability(context.Background(), "missing", time.Now(), 2, nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "parking slot not found or inactive", result.Message)
}

func TestCheckAvailabilityRejectsBadDuration(t *testing.T) {
	svc, _ := newTestBookingService(newMemBookingRepo(), newMemSlotRepo(testSlot()))

	_, err := svc.CheckAvailability(context.Background(), "slot-1", time.Now(), 0, nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CheckAvailability(context.Background(), "slot-1", time.Now(), 25, nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateBooking(t *testing.T) {
	bookings := newMemBookingRepo()
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking, err := svc.Create(context.Background(), "u1", BookingCreateInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  " ab-123-cd ",
		StartTime:     start,
		DurationHours: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, "AB-123-CD", booking.LicensePlate)
	assert.Equal(t, start.Add(4*time.Hour), booking.EndTime)
	assert.True(t, booking.TotalAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, domain.PaymentStatePending, booking.PaymentStatus)
	assert.Equal(t, []events.EventType{events.EventBookingCreated}, dispatcher.types())
}

func TestCreateBookingConflict(t *testing.T) {
	bookings := newMemBookingRepo()
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		Status:        domain.BookingStatusPending,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	_, err := svc.Create(context.Background(), "u2", BookingCreateInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  "XY-1",
		StartTime:     start.Add(time.Hour),
		DurationHours: 2,
	})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	assert.Empty(t, dispatcher.types())
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	bookings := newMemBookingRepo()
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	const attempts = 20

	var wg sync.WaitGroup
	successes := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			booking, err := svc.Create(context.Background(), fmt.Sprintf("u%d", n), BookingCreateInput{
				ParkingSlotID: "slot-1",
				LicensePlate:  fmt.Sprintf("P-%d", n),
				StartTime:     start,
				DurationHours: 2,
			})
			if err == nil {
				successes <- booking.ID
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners []string
	for id := range successes {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1, "exactly one concurrent create may win the window")

	all, err := bookings.ListAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCheckExtension(t *testing.T) {
	bookings := newMemBookingRepo()
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		DurationHours: 2,
		TotalAmount:   decimal.NewFromInt(10),
		Status:        domain.BookingStatusActive,
	})
	// Next booking starts 3h after the first one ends.
	bookings.add(domain.Booking{
		UserID:        "u2",
		ParkingSlotID: "slot-1",
		StartTime:     start.Add(5 * time.Hour),
		EndTime:       start.Add(7 * time.Hour),
		Status:        domain.BookingStatusPending,
	})
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	// Extending into the free gap works.
	check, err := svc.CheckExtension(context.Background(), booking.ID, 3, "u1")
	require.NoError(t, err)
	assert.True(t, check.CanExtend)
	assert.Equal(t, "booking can be extended", check.Message)
	assert.True(t, check.AdditionalCost.Equal(decimal.NewFromInt(15)))

	// Extending into the neighbour conflicts.
	check, err = svc.CheckExtension(context.Background(), booking.ID, 4, "u1")
	require.NoError(t, err)
	assert.False(t, check.CanExtend)
	assert.Equal(t, "cannot extend due to conflicting booking", check.Message)
}

func TestCheckExtensionTerminalBooking(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusCompleted,
	})
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	_, err := svc.CheckExtension(context.Background(), booking.ID, 1, "u1")
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestExtendBooking(t *testing.T) {
	bookings := newMemBookingRepo()
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		DurationHours: 2,
		TotalAmount:   decimal.NewFromInt(10),
		Status:        domain.BookingStatusActive,
		PaymentStatus: domain.PaymentStateCompleted,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	extended, err := svc.Extend(context.Background(), booking.ID, 2, "u1")
	require.NoError(t, err)

	assert.Equal(t, start.Add(4*time.Hour), extended.EndTime)
	assert.Equal(t, 4, extended.DurationHours)
	assert.True(t, extended.TotalAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, domain.BookingStatusExtended, extended.Status)
	assert.Equal(t, domain.PaymentStatePending, extended.PaymentStatus, "added hours must be paid")
	assert.Equal(t, []events.EventType{events.EventBookingExtended}, dispatcher.types())
}

func TestExtendBookingOwnWindowExcluded(t *testing.T) {
	// The booking's own window never blocks its extension; only the added
	// segment is checked.
	bookings := newMemBookingRepo()
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		DurationHours: 2,
		TotalAmount:   decimal.NewFromInt(10),
		Status:        domain.BookingStatusExtended,
	})
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	extended, err := svc.Extend(context.Background(), booking.ID, 1, "u1")
	require.NoError(t, err)
	assert.Equal(t, start.Add(3*time.Hour), extended.EndTime)
}

func TestCancelBooking(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusPending,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	cancelled, err := svc.Cancel(context.Background(), booking.ID, "u1")
	require.NoError(t, err)
	assert.True(t, cancelled)

	stored, err := bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, stored.Status)
	assert.Equal(t, []events.EventType{events.EventBookingCancelled}, dispatcher.types())
}

func TestCancelIsIdempotent(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusPending,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	first, err := svc.Cancel(context.Background(), booking.ID, "u1")
	require.NoError(t, err)
	assert.True(t, first)

	afterFirst, err := bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)

	second, err := svc.Cancel(context.Background(), booking.ID, "u1")
	require.NoError(t, err)
	assert.False(t, second, "second cancel must be a no-op")
	assert.Len(t, dispatcher.types(), 1, "only the first cancel emits an event")

	afterSecond, err := bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond, "second cancel leaves the row untouched")
}

func TestCancelUnknownBooking(t *testing.T) {
	svc, _ := newTestBookingService(newMemBookingRepo(), newMemSlotRepo(testSlot()))

	cancelled, err := svc.Cancel(context.Background(), "missing", "u1")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCompleteForceClosesPending(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusPending,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	completed, err := svc.Complete(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.True(t, completed, "an operator can close a booking in any non-cancelled state")

	stored, err := bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, stored.Status)
	require.Len(t, dispatcher.events, 1)
	payload, ok := dispatcher.events[0].Payload.(events.BookingStatusPayload)
	require.True(t, ok)
	assert.True(t, payload.Forced)
}

func TestCompleteRejectsCancelled(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusCancelled,
	})
	svc, dispatcher := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	completed, err := svc.Complete(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Empty(t, dispatcher.types())
}

// assertNoDoubleBooking checks that no two non-terminal bookings on the same
// slot overlap.
func assertNoDoubleBooking(t *testing.T, repo *memBookingRepo) {
	t.Helper()
	all, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)

	bySlot := make(map[string][]domain.Booking)
	for _, booking := range all {
		if booking.IsTerminal() {
			continue
		}
		bySlot[booking.ParkingSlotID] = append(bySlot[booking.ParkingSlotID], booking)
	}
	for slotID, list := range bySlot {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				require.False(t, list[i].Overlaps(list[j].StartTime, list[j].EndTime),
					"slot %s: bookings %s and %s overlap", slotID, list[i].ID, list[j].ID)
			}
		}
	}
}

func TestRandomLifecycleNeverDoubleBooks(t *testing.T) {
	bookings := newMemBookingRepo()
	svc, _ := newTestBookingService(bookings, newMemSlotRepo(testSlot()))

	rng := rand.New(rand.NewSource(1))
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	var created []string

	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			booking, err := svc.Create(context.Background(), fmt.Sprintf("u%d", rng.Intn(5)), BookingCreateInput{
				ParkingSlotID: "slot-1",
				LicensePlate:  fmt.Sprintf("R-%d", step),
				StartTime:     base.Add(time.Duration(rng.Intn(48)) * time.Hour),
				DurationHours: 1 + rng.Intn(4),
			})
			if err != nil {
				require.True(t, apperrors.IsCode(err, "CONFLICT"), "create may only fail on overlap: %v", err)
			} else {
				created = append(created, booking.ID)
			}
		case 1:
			if len(created) == 0 {
				continue
			}
			id := created[rng.Intn(len(created))]
			stored, err := bookings.GetByID(context.Background(), id)
			require.NoError(t, err)
			if _, err := svc.Extend(context.Background(), id, 1+rng.Intn(3), stored.UserID); err != nil {
				require.True(t,
					apperrors.IsCode(err, "CONFLICT") || apperrors.IsCode(err, "INVALID_STATE"),
					"extend may only fail on overlap or terminal state: %v", err)
			}
		case 2:
			if len(created) == 0 {
				continue
			}
			id := created[rng.Intn(len(created))]
			stored, err := bookings.GetByID(context.Background(), id)
			require.NoError(t, err)
			_, err = svc.Cancel(context.Background(), id, stored.UserID)
			require.NoError(t, err)
		}

		assertNoDoubleBooking(t, bookings)
	}
}

func TestListExpiringValidatesWindow(t *testing.T) {
	svc, _ := newTestBookingService(newMemBookingRepo(), newMemSlotRepo(testSlot()))

	_, err := svc.ListExpiring(context.Background(), 0)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
