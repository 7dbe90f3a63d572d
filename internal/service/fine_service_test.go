package service

import (
	"context"
	"fmt"
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

type memFineRepo struct {
	repository.FineRepository

	mu    sync.Mutex
	seq   int
	fines map[string]*domain.Fine
}

func newMemFineRepo() *memFineRepo {
	return &memFineRepo{fines: make(map[string]*domain.Fine)}
}

func (r *memFineRepo) Create(_ context.Context, fine *domain.Fine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	fine.ID = fmt.Sprintf("fine-%d", r.seq)
	fine.IssuedAt = time.Now()
	stored := *fine
	r.fines[stored.ID] = &stored
	return nil
}

func (r *memFineRepo) Update(_ context.Context, fine *domain.Fine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.fines[fine.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	*stored = *fine
	return nil
}

func (r *memFineRepo) GetByID(_ context.Context, id string) (*domain.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fine, ok := r.fines[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *fine
	return &copied, nil
}

func newTestFineService(fines *memFineRepo, bookings *memBookingRepo) (*FineService, *capturedEvents) {
	dispatcher := &capturedEvents{}
	svc := NewFineService(FineDependencies{
		FineRepo:    fines,
		BookingRepo: bookings,
		SlotRepo:    newMemSlotRepo(testSlot()),
		Dispatcher:  dispatcher,
	})
	return svc, dispatcher
}

func TestIssueFineAttachesKnownPlate(t *testing.T) {
	bookings := newMemBookingRepo()
	booking := bookings.add(domain.Booking{
		UserID:        "u1",
		ParkingSlotID: "slot-1",
		LicensePlate:  "AB-123",
		StartTime:     time.Now().Add(-time.Hour),
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.BookingStatusActive,
		CreatedAt:     time.Now(),
	})
	svc, dispatcher := newTestFineService(newMemFineRepo(), bookings)

	fine, err := svc.Issue(context.Background(), "security-1", FineIssueInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  "ab-123",
		Amount:        decimal.NewFromInt(50),
		Reason:        "overstay",
	})
	require.NoError(t, err)

	assert.Equal(t, "AB-123", fine.LicensePlate)
	require.NotNil(t, fine.UserID)
	assert.Equal(t, "u1", *fine.UserID)
	require.NotNil(t, fine.BookingID)
	assert.Equal(t, booking.ID, *fine.BookingID)
	assert.Equal(t, domain.FineStatusIssued, fine.Status)
	assert.Equal(t, []events.EventType{events.EventFineIssued}, dispatcher.types())
}

func TestIssueFineUnknownPlate(t *testing.T) {
	svc, _ := newTestFineService(newMemFineRepo(), newMemBookingRepo())

	fine, err := svc.Issue(context.Background(), "security-1", FineIssueInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  "ZZ-999",
		Amount:        decimal.NewFromInt(25),
		Reason:        "unauthorized parking",
	})
	require.NoError(t, err)
	assert.Nil(t, fine.UserID)
	assert.Nil(t, fine.BookingID)
}

func TestIssueFineRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestFineService(newMemFineRepo(), newMemBookingRepo())

	_, err := svc.Issue(context.Background(), "security-1", FineIssueInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  "AB-123",
		Amount:        decimal.Zero,
		Reason:        "overstay",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestFineLifecycle(t *testing.T) {
	svc, _ := newTestFineService(newMemFineRepo(), newMemBookingRepo())

	fine, err := svc.Issue(context.Background(), "security-1", FineIssueInput{
		ParkingSlotID: "slot-1",
		LicensePlate:  "AB-123",
		Amount:        decimal.NewFromInt(50),
		Reason:        "overstay",
	})
	require.NoError(t, err)

	disputed, err := svc.Dispute(context.Background(), fine.ID, "was loading goods")
	require.NoError(t, err)
	assert.Equal(t, domain.FineStatusDisputed, disputed.Status)

	paid, err := svc.Pay(context.Background(), fine.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FineStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Pay(context.Background(), fine.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))

	_, err = svc.Cancel(context.Background(), fine.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"), "paid fines cannot be cancelled")
}
