package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings/models"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking

	updateErr   error
	updateCalls int

	// Статус, который увидит перечитывание после отвергнутого CAS
	conflictStatus *domain.BookingStatus
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	m := make(map[int64]*domain.Booking, len(bookings))
	for _, b := range bookings {
		m[b.ID] = b
	}
	return &fakeBookingRepo{bookings: m}
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) GetByClientID(_ context.Context, clientID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	for _, b := range f.bookings {
		if b.ClientID != clientID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) GetByProviderWithFilter(_ context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	for _, b := range f.bookings {
		if b.ProviderID != filter.ProviderID {
			continue
		}
		if !filter.IncludeInactive && !b.IsActive() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) UpdateStatus(
	_ context.Context,
	id int64,
	from, to domain.BookingStatus,
	at time.Time,
	reason *string,
	cancelledBy *domain.CancelledBy,
) error {
	f.updateCalls++
	if f.updateErr != nil {
		if f.conflictStatus != nil {
			f.bookings[id].Status = *f.conflictStatus
		}
		return f.updateErr
	}

	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return bookingRepo.ErrStatusConflict
	}

	b.Status = to
	b.CancellationReason = reason
	b.CancelledBy = cancelledBy
	b.UpdatedAt = at
	return nil
}

type capturingPublisher struct {
	events []domain.Event
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeTimeProvider struct {
	now time.Time
}

func (f *fakeTimeProvider) Now() time.Time {
	return f.now
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func testBooking(id int64, status domain.BookingStatus, startAt time.Time) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		Number:          "BK-test0001",
		ProviderID:      10,
		ClientID:        20,
		ServiceID:       30,
		ServiceName:     "Массаж спины",
		DurationMinutes: 60,
		BufferMinutes:   15,
		StartAt:         startAt,
		Status:          status,
	}
}

func newTestService(repo *fakeBookingRepo, publisher *capturingPublisher, now time.Time) *Service {
	svc := NewService(repo, publisher, noopLogger{})
	svc.timeProvider = &fakeTimeProvider{now: now}
	return svc
}

func TestService_GetByID(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	svc := newTestService(repo, &capturingPublisher{}, startAt)

	result, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, "pending", result.Status)

	_, err = svc.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_Confirm(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	publisher := &capturingPublisher{}
	svc := newTestService(repo, publisher, now)

	result, err := svc.Confirm(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", result.Status)
	assert.NotNil(t, result.ConfirmedAt)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.EventStatusChanged, publisher.events[0].Type)
	assert.Equal(t, domain.StatusPending, publisher.events[0].OldStatus)
	assert.Equal(t, domain.StatusConfirmed, publisher.events[0].NewStatus)
}

func TestService_Confirm_InvalidTransition(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusCancelled, startAt))
	publisher := &capturingPublisher{}
	svc := newTestService(repo, publisher, startAt)

	_, err := svc.Confirm(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, publisher.events)
	assert.Zero(t, repo.updateCalls)
}

func TestService_Cancel_ByClient(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusConfirmed, startAt))
	svc := newTestService(repo, &capturingPublisher{}, now)

	reason := "не смогу прийти"
	result, err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{
		ActorID: 20, // владелец бронирования
		Reason:  &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	require.NotNil(t, result.CancelledBy)
	assert.Equal(t, "client", *result.CancelledBy)
	require.NotNil(t, result.CancellationReason)
	assert.Equal(t, reason, *result.CancellationReason)
}

func TestService_Cancel_ByProvider(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	svc := newTestService(repo, &capturingPublisher{}, now)

	result, err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{ActorID: 555})
	require.NoError(t, err)
	require.NotNil(t, result.CancelledBy)
	assert.Equal(t, "provider", *result.CancelledBy)
	assert.Nil(t, result.CancellationReason)
}

func TestService_Cancel_ReasonTooLong(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	svc := newTestService(repo, &capturingPublisher{}, startAt)

	reason := make([]byte, domain.MaxCancellationReasonLength+1)
	for i := range reason {
		reason[i] = 'x'
	}
	long := string(reason)

	_, err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{ActorID: 20, Reason: &long})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Complete(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusConfirmed, startAt))
	publisher := &capturingPublisher{}

	// До окончания услуги завершить нельзя
	svc := newTestService(repo, publisher, startAt.Add(30*time.Minute))
	_, err := svc.Complete(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	svc = newTestService(repo, publisher, startAt.Add(2*time.Hour))
	result, err := svc.Complete(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.NotNil(t, result.CompletedAt)
}

func TestService_MarkNoShow(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusConfirmed, startAt))

	// До начала услуги неявку не фиксируем
	svc := newTestService(repo, &capturingPublisher{}, startAt.Add(-10*time.Minute))
	_, err := svc.MarkNoShow(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	svc = newTestService(repo, &capturingPublisher{}, startAt.Add(15*time.Minute))
	result, err := svc.MarkNoShow(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, "no_show", result.Status)
}

func TestService_Transition_LostRace(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)

	// CAS отвергает обновление, перечитанный статус pending
	// всё ещё допускает переход: это проигранная гонка
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	repo.updateErr = bookingRepo.ErrStatusConflict
	svc := newTestService(repo, &capturingPublisher{}, now)

	_, err := svc.Confirm(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_Transition_RaceToTerminal(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)

	// CAS отвергает обновление, а перечитанный статус уже терминальный:
	// повторять переход бессмысленно
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	repo.updateErr = bookingRepo.ErrStatusConflict
	cancelled := domain.StatusCancelled
	repo.conflictStatus = &cancelled
	svc := newTestService(repo, &capturingPublisher{}, now)

	_, err := svc.Confirm(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_GetUserBookings(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(
		testBooking(1, domain.StatusPending, startAt),
		testBooking(2, domain.StatusCancelled, startAt.Add(24*time.Hour)),
	)
	svc := newTestService(repo, &capturingPublisher{}, startAt)

	result, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{ClientID: 20})
	require.NoError(t, err)
	assert.Len(t, result.Bookings, 2)

	status := "pending"
	result, err = svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		ClientID: 20,
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Len(t, result.Bookings, 1)

	bad := "nope"
	_, err = svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		ClientID: 20,
		Status:   &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetProviderBookings(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo := newFakeBookingRepo(
		testBooking(1, domain.StatusConfirmed, startAt),
		testBooking(2, domain.StatusCancelled, startAt.Add(time.Hour)),
	)
	svc := newTestService(repo, &capturingPublisher{}, startAt)

	result, err := svc.GetProviderBookings(context.Background(), &models.GetProviderBookingsRequest{ProviderID: 10})
	require.NoError(t, err)
	assert.Len(t, result.Bookings, 1)

	result, err = svc.GetProviderBookings(context.Background(), &models.GetProviderBookingsRequest{
		ProviderID:      10,
		IncludeInactive: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Bookings, 2)

	bad := "nope"
	_, err = svc.GetProviderBookings(context.Background(), &models.GetProviderBookingsRequest{
		ProviderID: 10,
		Status:     &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Transition_PublishFailureDoesNotFail(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	now := startAt.Add(-24 * time.Hour)
	repo := newFakeBookingRepo(testBooking(1, domain.StatusPending, startAt))
	publisher := &capturingPublisher{err: assert.AnError}
	svc := newTestService(repo, publisher, now)

	result, err := svc.Confirm(context.Background(), 1, &models.TransitionRequest{ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", result.Status)
}
