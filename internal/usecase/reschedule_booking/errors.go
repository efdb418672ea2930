package reschedule_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("reschedule_booking: booking not found")

	// ErrNotReschedulable возвращается при попытке переноса бронирования в терминальном статусе
	ErrNotReschedulable = errors.New("reschedule_booking: booking cannot be rescheduled in current status")

	// ErrInvalidDate возвращается при некорректной новой дате
	ErrInvalidDate = errors.New("reschedule_booking: invalid booking date")

	// ErrDateTooFarInFuture возвращается, когда новая дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("reschedule_booking: date is too far in the future")

	// ErrProviderClosed возвращается, когда провайдер не работает в новую дату
	ErrProviderClosed = errors.New("reschedule_booking: provider is closed on this date")

	// ErrSlotNotAvailable возвращается, когда новый слот занят другим бронированием
	ErrSlotNotAvailable = errors.New("reschedule_booking: slot is not available")

	// ErrInvalidTimeSlot возвращается, когда новое время не лежит на сетке слотов,
	// выходит за рабочие часы или попадает на перерыв
	ErrInvalidTimeSlot = errors.New("reschedule_booking: invalid time slot")

	// ErrTooLateToBook возвращается, когда новое время нарушает minLeadTimeMinutes
	ErrTooLateToBook = errors.New("reschedule_booking: too late to book this slot")

	// ErrConflict возвращается при конкурентном конфликте, который не разрешился повторами
	ErrConflict = errors.New("reschedule_booking: concurrent booking conflict")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_booking: internal error")
)
