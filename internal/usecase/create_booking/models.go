package create_booking

import (
	"time"

	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	ClientID   int64            // ID клиента
	ProviderID int64            // ID провайдера
	ServiceID  int64            // ID услуги
	Date       time.Time        // Дата бронирования (без времени)
	StartTime  types.TimeString // Время начала слота (например, "10:00")
	Notes      *string          // Дополнительные пожелания (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64            // ID созданного бронирования
	Number          string           // Номер бронирования (например, "BK-1a2b3c4d")
	ClientID        int64            // ID клиента
	ProviderID      int64            // ID провайдера
	ServiceID       int64            // ID услуги
	StartAt         time.Time        // Момент начала в UTC
	StartTime       types.TimeString // Время начала
	DurationMinutes int              // Длительность услуги в минутах
	BufferMinutes   int              // Буфер после услуги в минутах
	Status          string           // Статус бронирования

	// Денормализованные данные услуги
	ServiceName string  // Название услуги
	Notes       *string // Пожелания клиента

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
