package schedule

import "errors"

var (
	// ErrInvalidSchedule возвращается, когда расписание не проходит валидацию
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrConfigNotFound возвращается, когда конфигурация бронирований не найдена
	ErrConfigNotFound = errors.New("booking config not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrConflict возвращается, когда сериализуемая транзакция не прошла после всех повторов
	ErrConflict = errors.New("concurrent schedule update conflict")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
