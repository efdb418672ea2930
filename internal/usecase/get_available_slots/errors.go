package get_available_slots

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("service not found")

	// ErrInvalidDate возвращается при некорректном диапазоне дат
	ErrInvalidDate = errors.New("invalid date range")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("date is too far in the future")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
