package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: date range is required", ErrInvalidInput)
	}

	if req.To.Before(req.From) {
		return fmt.Errorf("%w: 'to' must not be before 'from'", ErrInvalidDate)
	}

	// Ограничиваем ширину диапазона, чтобы не генерировать слоты на годы вперед
	if daysBetween(req.From, req.To) > domain.MaxAvailabilityRangeDays {
		return fmt.Errorf("%w: range must not exceed %d days", ErrInvalidDate, domain.MaxAvailabilityRangeDays)
	}

	return nil
}

// validateServiceSnapshot проверяет длительность и буфер, полученные из каталога,
// до начала генерации слотов
func validateServiceSnapshot(durationMinutes, bufferMinutes int) error {
	if durationMinutes < domain.MinServiceDurationMinutes || durationMinutes > domain.MaxServiceDurationMinutes {
		return fmt.Errorf("%w: service duration %d minutes is out of bounds [%d, %d]",
			ErrInternal, durationMinutes, domain.MinServiceDurationMinutes, domain.MaxServiceDurationMinutes)
	}
	if bufferMinutes < domain.MinBufferMinutes || bufferMinutes > domain.MaxBufferMinutes {
		return fmt.Errorf("%w: service buffer %d minutes is out of bounds [%d, %d]",
			ErrInternal, bufferMinutes, domain.MinBufferMinutes, domain.MaxBufferMinutes)
	}
	return nil
}

// validateRange проверяет диапазон дат с учетом конфигурации бронирований
func validateRange(from, to time.Time, now time.Time, config *domain.ProviderBookingConfig) error {
	// Диапазон целиком в прошлом не имеет смысла
	if isDateInPast(to, now) {
		return ErrInvalidDate
	}

	if !config.HasAdvanceBookingLimit() {
		return nil
	}

	maxDate := truncateToDay(now).AddDate(0, 0, config.AdvanceBookingDays)
	if truncateToDay(from).After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, config.AdvanceBookingDays)
	}

	return nil
}

// daysBetween количество дней между двумя датами (без учета времени)
func daysBetween(from, to time.Time) int {
	return int(truncateToDay(to).Sub(truncateToDay(from)).Hours() / 24)
}

// truncateToDay обнуляет время, оставляя только дату
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return truncateToDay(date).Before(truncateToDay(now))
}
