package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error)
	ReplaceSchedule(ctx context.Context, schedule *domain.Schedule) error
}

// ConfigRepository интерфейс репозитория конфигурации бронирований
type ConfigRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) ([]*domain.ProviderBookingConfig, error)
	Upsert(ctx context.Context, cfg *domain.ProviderBookingConfig) (*domain.ProviderBookingConfig, error)
}

// CacheInvalidator интерфейс инвалидации кеша расписаний
type CacheInvalidator interface {
	InvalidateProvider(providerID int64)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
