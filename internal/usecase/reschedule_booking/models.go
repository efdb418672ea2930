package reschedule_booking

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID int64            // ID переносимого бронирования
	ActorID   int64            // ID пользователя, выполняющего перенос
	Date      time.Time        // Новая дата бронирования (без времени)
	StartTime types.TimeString // Новое время начала слота (например, "10:00")
}

// Response модель ответа с перенесенным бронированием
type Response struct {
	ID              int64            // ID бронирования
	Number          string           // Номер бронирования
	ClientID        int64            // ID клиента
	ProviderID      int64            // ID провайдера
	ServiceID       int64            // ID услуги
	StartAt         time.Time        // Новый момент начала в UTC
	OldStartAt      time.Time        // Прежний момент начала в UTC
	StartTime       types.TimeString // Новое время начала
	DurationMinutes int              // Длительность услуги в минутах
	BufferMinutes   int              // Буфер после услуги в минутах
	Status          string           // Статус бронирования (перенос его не меняет)

	ServiceName string  // Название услуги
	Notes       *string // Пожелания клиента

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}

func toResponse(b *domain.Booking, oldStartAt time.Time) *Response {
	return &Response{
		ID:              b.ID,
		Number:          b.Number,
		ClientID:        b.ClientID,
		ProviderID:      b.ProviderID,
		ServiceID:       b.ServiceID,
		StartAt:         b.StartAt,
		OldStartAt:      oldStartAt,
		StartTime:       types.NewTimeString(b.StartAt),
		DurationMinutes: b.DurationMinutes,
		BufferMinutes:   b.BufferMinutes,
		Status:          string(b.Status),
		ServiceName:     b.ServiceName,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
