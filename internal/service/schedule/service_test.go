package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/service/schedule/models"
	"github.com/m04kA/SPA-BookingService/pkg/simpletxmanager"
)

type fakeScheduleRepo struct {
	schedule   *domain.Schedule
	replaced   *domain.Schedule
	replaceErr error
}

func (f *fakeScheduleRepo) GetSchedule(_ context.Context, _ int64, _, _ time.Time) (*domain.Schedule, error) {
	return f.schedule, nil
}

func (f *fakeScheduleRepo) ReplaceSchedule(_ context.Context, s *domain.Schedule) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = s
	return nil
}

type fakeConfigRepo struct {
	configs   []*domain.ProviderBookingConfig
	upserted  *domain.ProviderBookingConfig
	upsertErr error
}

func (f *fakeConfigRepo) GetByProviderID(_ context.Context, _ int64) ([]*domain.ProviderBookingConfig, error) {
	return f.configs, nil
}

func (f *fakeConfigRepo) Upsert(_ context.Context, cfg *domain.ProviderBookingConfig) (*domain.ProviderBookingConfig, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	stored := *cfg
	stored.ID = 1
	f.upserted = &stored
	return &stored, nil
}

type fakeCacheInvalidator struct {
	invalidated []int64
}

func (f *fakeCacheInvalidator) InvalidateProvider(providerID int64) {
	f.invalidated = append(f.invalidated, providerID)
}

type passthroughTxManager struct {
	err error
}

func (m *passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type testEnv struct {
	svc          *Service
	scheduleRepo *fakeScheduleRepo
	configRepo   *fakeConfigRepo
	cache        *fakeCacheInvalidator
	txManager    *passthroughTxManager
}

func newTestEnv() *testEnv {
	scheduleRepo := &fakeScheduleRepo{
		schedule: &domain.Schedule{
			ProviderID: 10,
			Week: map[time.Weekday]*domain.DayHours{
				time.Monday: {Open: "09:00", Close: "17:00"},
			},
			Overrides: map[string]*domain.ScheduleOverride{},
		},
	}
	configRepo := &fakeConfigRepo{}
	cache := &fakeCacheInvalidator{}
	txManager := &passthroughTxManager{}

	return &testEnv{
		svc:          NewService(scheduleRepo, configRepo, cache, txManager, noopLogger{}),
		scheduleRepo: scheduleRepo,
		configRepo:   configRepo,
		cache:        cache,
		txManager:    txManager,
	}
}

func validReplaceRequest() *models.ReplaceScheduleRequest {
	return &models.ReplaceScheduleRequest{
		ProviderID: 10,
		Week: models.WeekHours{
			Monday: &models.DayHoursDTO{
				Open:  "09:00",
				Close: "17:00",
				Breaks: []models.BreakDTO{
					{Start: "12:00", End: "13:00"},
				},
			},
			Tuesday: &models.DayHoursDTO{Open: "10:00", Close: "16:00"},
		},
		Overrides: []models.OverrideDTO{
			{Date: "2026-09-21", Closed: true},
		},
	}
}

func TestService_GetSchedule(t *testing.T) {
	env := newTestEnv()
	from := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	result, err := env.svc.GetSchedule(context.Background(), 10, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.ProviderID)
	require.NotNil(t, result.Week.Monday)
	assert.Equal(t, "09:00", result.Week.Monday.Open)
	assert.Nil(t, result.Week.Sunday)

	_, err = env.svc.GetSchedule(context.Background(), 0, from, from)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ReplaceSchedule(t *testing.T) {
	env := newTestEnv()

	result, err := env.svc.ReplaceSchedule(context.Background(), validReplaceRequest())
	require.NoError(t, err)

	require.NotNil(t, env.scheduleRepo.replaced)
	assert.Equal(t, int64(10), env.scheduleRepo.replaced.ProviderID)
	assert.Len(t, env.scheduleRepo.replaced.Week, 2)
	assert.Len(t, env.scheduleRepo.replaced.Overrides, 1)

	require.NotNil(t, result.Week.Monday)
	assert.Len(t, result.Week.Monday.Breaks, 1)

	// Кеш инвалидирован после замены
	assert.Equal(t, []int64{10}, env.cache.invalidated)
}

func TestService_ReplaceSchedule_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ReplaceScheduleRequest)
	}{
		{"open after close", func(r *models.ReplaceScheduleRequest) {
			r.Week.Monday = &models.DayHoursDTO{Open: "18:00", Close: "09:00"}
		}},
		{"bad time format", func(r *models.ReplaceScheduleRequest) {
			r.Week.Monday = &models.DayHoursDTO{Open: "9am", Close: "17:00"}
		}},
		{"break outside hours", func(r *models.ReplaceScheduleRequest) {
			r.Week.Monday = &models.DayHoursDTO{
				Open: "09:00", Close: "17:00",
				Breaks: []models.BreakDTO{{Start: "16:30", End: "18:00"}},
			}
		}},
		{"bad override date", func(r *models.ReplaceScheduleRequest) {
			r.Overrides = []models.OverrideDTO{{Date: "21.09.2026", Closed: true}}
		}},
		{"closed override with hours", func(r *models.ReplaceScheduleRequest) {
			r.Overrides = []models.OverrideDTO{{
				Date:   "2026-09-21",
				Closed: true,
				Hours:  &models.DayHoursDTO{Open: "10:00", Close: "14:00"},
			}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			req := validReplaceRequest()
			tt.mutate(req)

			_, err := env.svc.ReplaceSchedule(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
			assert.Nil(t, env.scheduleRepo.replaced)
			assert.Empty(t, env.cache.invalidated)
		})
	}
}

func TestService_ReplaceSchedule_SerializationConflict(t *testing.T) {
	env := newTestEnv()
	env.txManager.err = simpletxmanager.ErrSerialization

	_, err := env.svc.ReplaceSchedule(context.Background(), validReplaceRequest())
	assert.ErrorIs(t, err, ErrConflict)

	// Кеш не трогаем, если транзакция не закоммичена
	assert.Empty(t, env.cache.invalidated)
}

func TestService_GetConfigs(t *testing.T) {
	env := newTestEnv()
	serviceID := int64(30)
	env.configRepo.configs = []*domain.ProviderBookingConfig{
		{ID: 1, ProviderID: 10, GranularityMinutes: 30},
		{ID: 2, ProviderID: 10, ServiceID: &serviceID, GranularityMinutes: 15},
	}

	result, err := env.svc.GetConfigs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, result.Configs, 2)
	assert.Nil(t, result.Configs[0].ServiceID)
	assert.Equal(t, "provider", result.Configs[0].Scope)
	require.NotNil(t, result.Configs[1].ServiceID)
	assert.Equal(t, serviceID, *result.Configs[1].ServiceID)
	assert.Equal(t, "service", result.Configs[1].Scope)

	_, err = env.svc.GetConfigs(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_UpdateConfig(t *testing.T) {
	env := newTestEnv()

	result, err := env.svc.UpdateConfig(context.Background(), &models.UpdateConfigRequest{
		ProviderID:         10,
		GranularityMinutes: 30,
		MinLeadTimeMinutes: 60,
		AdvanceBookingDays: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, 30, result.GranularityMinutes)

	require.NotNil(t, env.configRepo.upserted)
	assert.Equal(t, int64(10), env.configRepo.upserted.ProviderID)
}

func TestService_UpdateConfig_Bounds(t *testing.T) {
	tests := []struct {
		name string
		req  models.UpdateConfigRequest
	}{
		{"zero provider", models.UpdateConfigRequest{
			GranularityMinutes: 30, MinLeadTimeMinutes: 60, AdvanceBookingDays: 14,
		}},
		{"granularity too small", models.UpdateConfigRequest{
			ProviderID: 10, GranularityMinutes: 1, MinLeadTimeMinutes: 60, AdvanceBookingDays: 14,
		}},
		{"granularity too large", models.UpdateConfigRequest{
			ProviderID: 10, GranularityMinutes: 500, MinLeadTimeMinutes: 60, AdvanceBookingDays: 14,
		}},
		{"negative lead time", models.UpdateConfigRequest{
			ProviderID: 10, GranularityMinutes: 30, MinLeadTimeMinutes: -5, AdvanceBookingDays: 14,
		}},
		{"advance days too large", models.UpdateConfigRequest{
			ProviderID: 10, GranularityMinutes: 30, MinLeadTimeMinutes: 60, AdvanceBookingDays: 999,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.svc.UpdateConfig(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
