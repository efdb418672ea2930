package get_available_slots

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// generateDaySlots генерирует все возможные слоты на один рабочий день.
// Слоты идут от времени открытия с фиксированным шагом granularity.
// Слот попадает в результат, только если услуга целиком помещается до
// закрытия и не пересекается ни с одним перерывом. Буфер после услуги
// может выходить за время закрытия: помещение клиента заканчивается,
// уборка может идти после
func generateDaySlots(
	day *domain.DayHours,
	date time.Time,
	granularityMinutes int,
	durationMinutes int,
) ([]Slot, error) {
	if day == nil {
		return []Slot{}, nil
	}

	slots := make([]Slot, 0)
	current := day.Open

	for current.IsBefore(day.Close) {
		slotEnd, err := current.AddMinutes(durationMinutes)
		if err != nil {
			// Услуга не помещается до полуночи, дальше слотов нет
			break
		}
		if slotEnd.IsAfter(day.Close) {
			break
		}

		if !overlapsBreak(current, slotEnd, day.Breaks) {
			slots = append(slots, Slot{
				StartTime:       current,
				StartAt:         current.OnDate(date),
				DurationMinutes: durationMinutes,
			})
		}

		current, err = current.AddMinutes(granularityMinutes)
		if err != nil {
			break
		}
	}

	return slots, nil
}

// overlapsBreak проверяет пересечение интервала услуги с перерывами.
// Граничные случаи пересечением не считаются: услуга может заканчиваться
// ровно в начале перерыва и начинаться ровно в его конце
func overlapsBreak(start, end types.TimeString, breaks []domain.BreakWindow) bool {
	for _, br := range breaks {
		if start.IsBefore(br.End) && br.Start.IsBefore(end) {
			return true
		}
	}
	return false
}

// filterAvailable отбрасывает слоты, которые пересекаются с активными
// бронированиями или начинаются раньше минимального допустимого времени.
// Кандидат занимает интервал [start, start + duration + buffer), поэтому
// буфер учитывается с обеих сторон: и у кандидата, и у существующих
// бронирований (через OccupiedUntil)
func filterAvailable(
	slots []Slot,
	bookings []*domain.Booking,
	durationMinutes int,
	bufferMinutes int,
	minStart time.Time,
) []Slot {
	available := make([]Slot, 0, len(slots))
	occupiedSpan := time.Duration(durationMinutes+bufferMinutes) * time.Minute

	for _, slot := range slots {
		if slot.StartAt.Before(minStart) {
			continue
		}

		candidateEnd := slot.StartAt.Add(occupiedSpan)
		if !overlapsBooking(slot.StartAt, candidateEnd, bookings) {
			available = append(available, slot)
		}
	}

	return available
}

// overlapsBooking проверяет пересечение кандидата с активными бронированиями.
// Используем строгие неравенства: граничащие интервалы не пересекаются
func overlapsBooking(start, end time.Time, bookings []*domain.Booking) bool {
	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}
		if start.Before(booking.OccupiedUntil()) && booking.StartAt.Before(end) {
			return true
		}
	}
	return false
}
