package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetByProviderWithFilter получает бронирования провайдера, пересекающиеся с окном фильтра
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
}

// ConfigRepository интерфейс репозитория конфигурации бронирований
type ConfigRepository interface {
	// GetConfigWithHierarchy получает конфигурацию с учетом иерархии приоритетов
	GetConfigWithHierarchy(ctx context.Context, providerID int64, serviceID *int64) (*domain.ProviderBookingConfig, error)
}

// ScheduleProvider интерфейс источника расписаний (репозиторий или кеш поверх него)
type ScheduleProvider interface {
	GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error)
}

// CatalogServiceClient интерфейс клиента каталога провайдеров и услуг
type CatalogServiceClient interface {
	GetProvider(ctx context.Context, providerID int64) (*catalogservice.Provider, error)
	GetService(ctx context.Context, providerID, serviceID int64) (*catalogservice.Service, error)
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
