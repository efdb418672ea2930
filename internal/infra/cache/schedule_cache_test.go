package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

type countingReader struct {
	calls int
}

func (r *countingReader) GetSchedule(_ context.Context, providerID int64, _, _ time.Time) (*domain.Schedule, error) {
	r.calls++
	return &domain.Schedule{
		ProviderID: providerID,
		Week:       map[time.Weekday]*domain.DayHours{},
		Overrides:  map[string]*domain.ScheduleOverride{},
	}, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}

func TestCachedScheduleReader_GetSchedule(t *testing.T) {
	reader := &countingReader{}
	cached, err := NewCachedScheduleReader(reader, 16, noopLogger{})
	require.NoError(t, err)

	from := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := cached.GetSchedule(context.Background(), 10, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls)

	// Повторный запрос с теми же параметрами идет из кеша
	second, err := cached.GetSchedule(context.Background(), 10, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls)
	assert.Same(t, first, second)

	// Другой диапазон - отдельная запись
	_, err = cached.GetSchedule(context.Background(), 10, from, to.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestCachedScheduleReader_InvalidateProvider(t *testing.T) {
	reader := &countingReader{}
	cached, err := NewCachedScheduleReader(reader, 16, noopLogger{})
	require.NoError(t, err)

	from := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	_, err = cached.GetSchedule(context.Background(), 10, from, to)
	require.NoError(t, err)
	_, err = cached.GetSchedule(context.Background(), 11, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)

	cached.InvalidateProvider(10)

	// Записи провайдера 10 сброшены, провайдера 11 остались
	_, err = cached.GetSchedule(context.Background(), 10, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, reader.calls)

	_, err = cached.GetSchedule(context.Background(), 11, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, reader.calls)
}
