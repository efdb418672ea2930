package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateServiceSnapshot проверяет длительность и буфер, полученные из каталога,
// до вычисления занимаемого интервала
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

// validateDate проверяет, что дата подходит для бронирования
func validateDate(bookingDate time.Time, now time.Time, config *domain.ProviderBookingConfig) error {
	if isDateInPast(bookingDate, now) {
		return ErrInvalidDate
	}

	if !config.HasAdvanceBookingLimit() {
		return nil
	}

	maxDate := truncateToDay(now).AddDate(0, 0, config.AdvanceBookingDays)
	if truncateToDay(bookingDate).After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, config.AdvanceBookingDays)
	}

	return nil
}

// validateLeadTime проверяет, что до начала слота остается не меньше minLeadTimeMinutes
func validateLeadTime(startAt, now time.Time, minLeadTimeMinutes int) error {
	minStart := now.Add(time.Duration(minLeadTimeMinutes) * time.Minute)
	if startAt.Before(minStart) {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, minLeadTimeMinutes)
	}
	return nil
}

// validateSlotFits проверяет, что слот лежит на сетке granularity от времени
// открытия, услуга помещается до закрытия и не пересекается с перерывами
func validateSlotFits(
	day *domain.DayHours,
	startTime types.TimeString,
	granularityMinutes int,
	durationMinutes int,
) error {
	if startTime.IsBefore(day.Open) {
		return fmt.Errorf("%w: starts before opening time %s", ErrInvalidTimeSlot, day.Open)
	}

	// Начало слота должно лежать на сетке от времени открытия
	offset := startTime.Minutes() - day.Open.Minutes()
	if offset%granularityMinutes != 0 {
		return fmt.Errorf("%w: start time is not aligned to %d-minute grid", ErrInvalidTimeSlot, granularityMinutes)
	}

	slotEnd, err := startTime.AddMinutes(durationMinutes)
	if err != nil {
		return fmt.Errorf("%w: service does not fit in the day", ErrInvalidTimeSlot)
	}
	if slotEnd.IsAfter(day.Close) {
		return fmt.Errorf("%w: service ends after closing time %s", ErrInvalidTimeSlot, day.Close)
	}

	for _, br := range day.Breaks {
		if startTime.IsBefore(br.End) && br.Start.IsBefore(slotEnd) {
			return fmt.Errorf("%w: overlaps break %s-%s", ErrInvalidTimeSlot, br.Start, br.End)
		}
	}

	return nil
}

// truncateToDay обнуляет время, оставляя только дату
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return truncateToDay(date).Before(truncateToDay(now))
}
