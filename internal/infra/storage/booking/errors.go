package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSlotTaken возвращается, когда вставка нарушила exclusion constraint
	// по занятым интервалам (кто-то успел занять пересекающийся интервал)
	ErrSlotTaken = errors.New("booking.repository: occupied interval conflict")

	// ErrStatusConflict возвращается, когда CAS-обновление статуса не нашло строку
	// в ожидаемом исходном статусе (конкурирующий переход выиграл)
	ErrStatusConflict = errors.New("booking.repository: booking status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
