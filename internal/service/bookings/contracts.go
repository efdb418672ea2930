package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByClientID(ctx context.Context, clientID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, at time.Time, reason *string, cancelledBy *domain.CancelledBy) error
}

// EventPublisher интерфейс публикации событий жизненного цикла бронирований
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
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
