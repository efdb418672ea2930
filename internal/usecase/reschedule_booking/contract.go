package reschedule_booking

import (
	"context"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	UpdateStartAt(ctx context.Context, id int64, from domain.BookingStatus, startAt, at time.Time) error
}

// ConfigRepository интерфейс репозитория конфигурации бронирований
type ConfigRepository interface {
	GetConfigWithHierarchy(ctx context.Context, providerID int64, serviceID *int64) (*domain.ProviderBookingConfig, error)
}

// ScheduleProvider интерфейс источника расписаний
type ScheduleProvider interface {
	GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error)
}

// EventPublisher интерфейс публикации событий жизненного цикла бронирований
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
