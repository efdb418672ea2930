package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события жизненного цикла бронирования
type EventType string

const (
	EventBookingCreated     EventType = "booking_created"
	EventStatusChanged      EventType = "status_changed"
	EventBookingRescheduled EventType = "booking_rescheduled"
)

// Event событие жизненного цикла бронирования
// Потребляется диспетчером уведомлений; публикуется только после коммита транзакции
type Event struct {
	ID            string        `json:"id"`
	Type          EventType     `json:"type"`
	BookingID     int64         `json:"bookingId"`
	BookingNumber string        `json:"bookingNumber"`
	ProviderID    int64         `json:"providerId"`
	ClientID      int64         `json:"clientId"`
	OldStatus     BookingStatus `json:"oldStatus,omitempty"`
	NewStatus     BookingStatus `json:"newStatus"`
	StartAt       time.Time     `json:"startAt"`
	OldStartAt    *time.Time    `json:"oldStartAt,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

// NewCreatedEvent создает событие booking_created
func NewCreatedEvent(b *Booking, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          EventBookingCreated,
		BookingID:     b.ID,
		BookingNumber: b.Number,
		ProviderID:    b.ProviderID,
		ClientID:      b.ClientID,
		NewStatus:     b.Status,
		StartAt:       b.StartAt,
		OccurredAt:    now,
	}
}

// NewStatusChangedEvent создает событие status_changed
func NewStatusChangedEvent(b *Booking, old, new BookingStatus, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          EventStatusChanged,
		BookingID:     b.ID,
		BookingNumber: b.Number,
		ProviderID:    b.ProviderID,
		ClientID:      b.ClientID,
		OldStatus:     old,
		NewStatus:     new,
		StartAt:       b.StartAt,
		OccurredAt:    now,
	}
}

// NewRescheduledEvent создает событие booking_rescheduled
// StartAt содержит новое время, OldStartAt - прежнее
func NewRescheduledEvent(b *Booking, oldStartAt time.Time, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          EventBookingRescheduled,
		BookingID:     b.ID,
		BookingNumber: b.Number,
		ProviderID:    b.ProviderID,
		ClientID:      b.ClientID,
		NewStatus:     b.Status,
		StartAt:       b.StartAt,
		OldStartAt:    &oldStartAt,
		OccurredAt:    now,
	}
}

// NewBookingNumber генерирует человекочитаемый номер бронирования
func NewBookingNumber() string {
	return "BK-" + uuid.NewString()[:8]
}
