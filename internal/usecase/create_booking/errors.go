package create_booking

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("create_booking: provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("create_booking: date is too far in the future")

	// ErrProviderClosed возвращается, когда провайдер не работает в указанную дату
	ErrProviderClosed = errors.New("create_booking: provider is closed on this date")

	// ErrSlotNotAvailable возвращается, когда выбранный слот занят другим бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidTimeSlot возвращается, когда время начала не лежит на сетке слотов,
	// выходит за рабочие часы или попадает на перерыв
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrTooLateToBook возвращается, когда попытка забронировать слот нарушает minLeadTimeMinutes
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrConflict возвращается, когда сериализуемая транзакция не прошла после всех повторов
	ErrConflict = errors.New("create_booking: concurrent booking conflict")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
