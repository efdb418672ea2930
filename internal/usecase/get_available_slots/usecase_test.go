package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	configRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/config"
	"github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
)

type fakeBookingRepo struct {
	bookings []*domain.Booking
	err      error
}

func (f *fakeBookingRepo) GetByProviderWithFilter(_ context.Context, _ domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	return f.bookings, f.err
}

type fakeConfigRepo struct {
	config *domain.ProviderBookingConfig
	err    error
}

func (f *fakeConfigRepo) GetConfigWithHierarchy(_ context.Context, _ int64, _ *int64) (*domain.ProviderBookingConfig, error) {
	return f.config, f.err
}

type fakeScheduleProvider struct {
	schedule *domain.Schedule
	err      error
}

func (f *fakeScheduleProvider) GetSchedule(_ context.Context, _ int64, _, _ time.Time) (*domain.Schedule, error) {
	return f.schedule, f.err
}

type fakeCatalogClient struct {
	provider    *catalogservice.Provider
	providerErr error
	service     *catalogservice.Service
	serviceErr  error
}

func (f *fakeCatalogClient) GetProvider(_ context.Context, _ int64) (*catalogservice.Provider, error) {
	return f.provider, f.providerErr
}

func (f *fakeCatalogClient) GetService(_ context.Context, _, _ int64) (*catalogservice.Service, error) {
	return f.service, f.serviceErr
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

func weeklySchedule() *domain.Schedule {
	day := &domain.DayHours{
		Open:  "09:00",
		Close: "17:00",
		Breaks: []domain.BreakWindow{
			{Start: "12:00", End: "13:00"},
		},
	}
	return &domain.Schedule{
		ProviderID: 10,
		Week: map[time.Weekday]*domain.DayHours{
			time.Monday:  day,
			time.Tuesday: day,
		},
		Overrides: map[string]*domain.ScheduleOverride{},
	}
}

func newTestUseCase(
	bookings *fakeBookingRepo,
	configs *fakeConfigRepo,
	schedules *fakeScheduleProvider,
	catalog *fakeCatalogClient,
	now time.Time,
) *UseCase {
	uc := NewUseCase(bookings, configs, schedules, catalog, noopLogger{})
	uc.timeProvider = &fakeTimeProvider{now: now}
	return uc
}

func defaultCatalog() *fakeCatalogClient {
	return &fakeCatalogClient{
		provider: &catalogservice.Provider{ID: 10, Name: "SPA на Лесной", Timezone: "UTC", IsActive: true},
		service: &catalogservice.Service{
			ID: 30, ProviderID: 10, Name: "Массаж спины",
			DurationMinutes: 60, BufferMinutes: 15, IsActive: true,
		},
	}
}

func TestUseCase_Execute(t *testing.T) {
	// Понедельник
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: &domain.ProviderBookingConfig{
			ProviderID:         10,
			GranularityMinutes: 30,
			MinLeadTimeMinutes: 60,
		}},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	result, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       monday,
		To:         monday,
	})
	require.NoError(t, err)

	require.Len(t, result.Days, 1)
	assert.Equal(t, monday, result.Days[0].Date)
	assert.Len(t, result.Days[0].Slots, 12)
	assert.Equal(t, "09:00", result.Days[0].Slots[0].StartTime.String())
}

func TestUseCase_Execute_ClosedDay(t *testing.T) {
	// Воскресенье не входит в недельный шаблон
	sunday := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	result, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       sunday,
		To:         sunday,
	})
	require.NoError(t, err)

	require.Len(t, result.Days, 1)
	assert.Empty(t, result.Days[0].Slots)
}

func TestUseCase_Execute_FirstOnly(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	// Понедельник закрыт переопределением, первый слот будет во вторник
	schedule := weeklySchedule()
	schedule.Overrides["2026-09-14"] = &domain.ScheduleOverride{Date: monday, Closed: true}

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: schedule},
		defaultCatalog(),
		now,
	)

	result, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       monday,
		To:         tuesday,
		FirstOnly:  true,
	})
	require.NoError(t, err)

	require.Len(t, result.Days, 1)
	assert.Equal(t, tuesday, result.Days[0].Date)
	require.Len(t, result.Days[0].Slots, 1)
	assert.Equal(t, "09:00", result.Days[0].Slots[0].StartTime.String())
}

func TestUseCase_Execute_FirstOnlyNoSlots(t *testing.T) {
	sunday := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	result, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       sunday,
		To:         sunday,
		FirstOnly:  true,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Days)
}

func TestUseCase_Execute_DefaultConfigFallback(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{err: configRepo.ErrConfigNotFound},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	result, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       monday,
		To:         monday,
	})
	require.NoError(t, err)
	require.Len(t, result.Days, 1)
	assert.NotEmpty(t, result.Days[0].Slots)
}

func TestUseCase_Execute_ProviderNotFound(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	catalog := defaultCatalog()
	catalog.providerErr = catalogservice.ErrProviderNotFound

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		catalog,
		now,
	)

	_, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 99,
		ServiceID:  30,
		From:       monday,
		To:         monday,
	})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestUseCase_Execute_DateTooFar(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	farDate := now.AddDate(0, 0, 20)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: &domain.ProviderBookingConfig{
			ProviderID:         10,
			GranularityMinutes: 30,
			AdvanceBookingDays: 14,
		}},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	_, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       farDate,
		To:         farDate,
	})
	assert.ErrorIs(t, err, ErrDateTooFarInFuture)
}

func TestUseCase_Execute_PastRange(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -7)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	_, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       past,
		To:         past,
	})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUseCase_Execute_InvalidInput(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	uc := newTestUseCase(
		&fakeBookingRepo{},
		&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		defaultCatalog(),
		now,
	)

	_, err := uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 0,
		ServiceID:  30,
		From:       monday,
		To:         monday,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Диапазон шире максимума
	_, err = uc.Execute(context.Background(), &Request{
		UserID:     20,
		ProviderID: 10,
		ServiceID:  30,
		From:       monday,
		To:         monday.AddDate(0, 0, domain.MaxAvailabilityRangeDays+1),
	})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUseCase_Execute_InvalidServiceSnapshot(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration int
		buffer   int
	}{
		{"zero duration", 0, 15},
		{"negative duration", -60, 15},
		{"negative buffer", 60, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := defaultCatalog()
			catalog.service.DurationMinutes = tt.duration
			catalog.service.BufferMinutes = tt.buffer

			uc := newTestUseCase(
				&fakeBookingRepo{},
				&fakeConfigRepo{config: domain.DefaultBookingConfig(10)},
				&fakeScheduleProvider{schedule: weeklySchedule()},
				catalog,
				now,
			)

			_, err := uc.Execute(context.Background(), &Request{
				UserID:     20,
				ProviderID: 10,
				ServiceID:  30,
				From:       monday,
				To:         monday,
			})
			assert.ErrorIs(t, err, ErrInternal)
		})
	}
}
