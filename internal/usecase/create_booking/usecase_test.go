package create_booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// memBookingRepo хранит бронирования в памяти и имитирует
// последовательное исполнение транзакций через mutex в txManager
type memBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings []*domain.Booking
}

func (r *memBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	created := *b
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.bookings = append(r.bookings, &created)
	return &created, nil
}

func (r *memBookingRepo) GetByProviderWithFilter(_ context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.OverlapFrom != nil && filter.OverlapTo != nil &&
			!b.Overlaps(*filter.OverlapFrom, *filter.OverlapTo) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeConfigRepo struct {
	config *domain.ProviderBookingConfig
}

func (f *fakeConfigRepo) GetConfigWithHierarchy(_ context.Context, _ int64, _ *int64) (*domain.ProviderBookingConfig, error) {
	return f.config, nil
}

type fakeScheduleProvider struct {
	schedule *domain.Schedule
}

func (f *fakeScheduleProvider) GetSchedule(_ context.Context, _ int64, _, _ time.Time) (*domain.Schedule, error) {
	return f.schedule, nil
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

// serialTxManager последовательно исполняет транзакции под mutex,
// как это делает SERIALIZABLE изоляция для конфликтующих транзакций
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
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
			time.Monday: day,
		},
		Overrides: map[string]*domain.ScheduleOverride{},
	}
}

type testEnv struct {
	uc        *UseCase
	repo      *memBookingRepo
	publisher *capturingPublisher
}

func newTestEnv(now time.Time) *testEnv {
	repo := &memBookingRepo{}
	publisher := &capturingPublisher{}

	uc := NewUseCase(
		repo,
		&fakeConfigRepo{config: &domain.ProviderBookingConfig{
			ProviderID:         10,
			GranularityMinutes: 30,
			MinLeadTimeMinutes: 60,
		}},
		&fakeScheduleProvider{schedule: weeklySchedule()},
		&fakeCatalogClient{
			provider: &catalogservice.Provider{ID: 10, Name: "SPA на Лесной", Timezone: "UTC", IsActive: true},
			service: &catalogservice.Service{
				ID: 30, ProviderID: 10, Name: "Массаж спины",
				DurationMinutes: 60, BufferMinutes: 15, IsActive: true,
			},
		},
		publisher,
		&serialTxManager{},
		noopLogger{},
	)
	uc.timeProvider = &fakeTimeProvider{now: now}

	return &testEnv{uc: uc, repo: repo, publisher: publisher}
}

func validRequest() *Request {
	return &Request{
		ClientID:   20,
		ProviderID: 10,
		ServiceID:  30,
		// Понедельник
		Date:      time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		StartTime: types.TimeString("10:00"),
	}
}

func TestUseCase_Execute(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	result, err := env.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotZero(t, result.ID)
	assert.Equal(t, "BK-", result.Number[:3])
	assert.Equal(t, int64(20), result.ClientID)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, "Массаж спины", result.ServiceName)
	assert.Equal(t, 60, result.DurationMinutes)
	assert.Equal(t, 15, result.BufferMinutes)
	assert.Equal(t, time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC), result.StartAt)
	assert.Equal(t, types.TimeString("10:00"), result.StartTime)

	// Событие опубликовано после коммита
	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, domain.EventBookingCreated, env.publisher.events[0].Type)
	assert.Equal(t, result.ID, env.publisher.events[0].BookingID)
}

func TestUseCase_Execute_SlotTaken(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	_, err := env.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	// Тот же слот повторно
	_, err = env.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// Соседний слот пересекается через буфер: [10:30, 11:45) x [10:00, 11:15)
	req := validRequest()
	req.StartTime = types.TimeString("10:30")
	_, err = env.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// Слот после занятого интервала и перерыва свободен
	req = validRequest()
	req.StartTime = types.TimeString("13:00")
	_, err = env.uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestUseCase_Execute_ConcurrentSameSlot(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.uc.Execute(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSlotNotAvailable)
		}
	}

	// Ровно одно бронирование на слот
	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.repo.bookings, 1)
}

func TestUseCase_Execute_ProviderClosed(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	req := validRequest()
	// Вторник не входит в недельный шаблон
	req.Date = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	_, err := env.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrProviderClosed)
}

func TestUseCase_Execute_SlotValidation(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startTime types.TimeString
	}{
		{"before open", "08:00"},
		{"off grid", "10:15"},
		{"service past close", "16:30"},
		{"overlaps break", "11:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(now)
			req := validRequest()
			req.StartTime = tt.startTime

			_, err := env.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidTimeSlot)
		})
	}
}

func TestUseCase_Execute_TooLateToBook(t *testing.T) {
	// Сейчас 09:30 в день бронирования, минимальный интервал 60 минут
	now := time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC)
	env := newTestEnv(now)

	req := validRequest()
	req.StartTime = types.TimeString("10:00")

	_, err := env.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrTooLateToBook)

	req.StartTime = types.TimeString("10:30")
	_, err = env.uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestUseCase_Execute_PastDate(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	req := validRequest()
	req.Date = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := env.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUseCase_Execute_ProviderNotFound(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.uc.catalogClient = &fakeCatalogClient{providerErr: catalogservice.ErrProviderNotFound}

	_, err := env.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestUseCase_Execute_InvalidInput(t *testing.T) {
	now := time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero client", func(r *Request) { r.ClientID = 0 }},
		{"zero provider", func(r *Request) { r.ProviderID = 0 }},
		{"missing date", func(r *Request) { r.Date = time.Time{} }},
		{"missing start time", func(r *Request) { r.StartTime = "" }},
		{"bad start time", func(r *Request) { r.StartTime = "25:99" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(now)
			req := validRequest()
			tt.mutate(req)

			_, err := env.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUseCase_Execute_InvalidServiceSnapshot(t *testing.T) {
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
			env := newTestEnv(now)
			env.uc.catalogClient = &fakeCatalogClient{
				provider: &catalogservice.Provider{ID: 10, Name: "SPA на Лесной", Timezone: "UTC", IsActive: true},
				service: &catalogservice.Service{
					ID: 30, ProviderID: 10, Name: "Массаж спины",
					DurationMinutes: tt.duration, BufferMinutes: tt.buffer, IsActive: true,
				},
			}

			_, err := env.uc.Execute(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrInternal)

			// Бронирование не создано, событий нет
			assert.Empty(t, env.repo.bookings)
			assert.Empty(t, env.publisher.events)
		})
	}
}
