package domain

import (
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// ErrInvalidTransition возвращается при попытке недопустимого перехода статуса
var ErrInvalidTransition = errors.New("domain: invalid booking status transition")

// validTransitions таблица допустимых переходов статусов
// Всё, чего нет в таблице - недопустимый переход
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal returns true if no further transitions are possible from this status
func (s BookingStatus) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	return !ok || len(allowed) == 0
}

// CanTransitionTo returns true if a transition from this status to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts a string to a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// CancelledBy кто отменил бронирование
type CancelledBy string

const (
	CancelledByClient   CancelledBy = "client"
	CancelledByProvider CancelledBy = "provider"
)

// Booking represents a reserved time window for a provider's service.
// Duration and buffer are snapshotted from the service definition at creation
// time, so later catalog edits never change an existing booking's interval.
type Booking struct {
	ID         int64
	Number     string // человекочитаемый номер, например "BK-7f3a9c12"
	ProviderID int64
	ClientID   int64
	ServiceID  int64

	// Snapshot of the service definition at creation time
	ServiceName     string
	DurationMinutes int
	BufferMinutes   int

	StartAt time.Time // UTC
	Status  BookingStatus

	Notes              *string
	CancellationReason *string
	CancelledBy        *CancelledBy

	ConfirmedAt *time.Time
	CancelledAt *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndAt returns the instant the service itself ends (start + duration)
func (b *Booking) EndAt() time.Time {
	return b.StartAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// OccupiedUntil returns the end of the occupied interval (start + duration + buffer)
func (b *Booking) OccupiedUntil() time.Time {
	return b.StartAt.Add(time.Duration(b.DurationMinutes+b.BufferMinutes) * time.Minute)
}

// IsActive returns true if the booking still occupies its interval
func (b *Booking) IsActive() bool {
	return !b.Status.IsTerminal()
}

// Overlaps проверяет пересечение занятого интервала бронирования с [from, to)
// Строгие неравенства: граничащие интервалы не пересекаются
func (b *Booking) Overlaps(from, to time.Time) bool {
	return b.StartAt.Before(to) && b.OccupiedUntil().After(from)
}

// Transition применяет переход статуса по таблице переходов
// Проверяет временные ограничения: completed - только после окончания услуги,
// no_show - только после начала. Мутирует бронирование и возвращает событие
// жизненного цикла; сама никакого I/O не выполняет
func (b *Booking) Transition(target BookingStatus, now time.Time) (Event, error) {
	if !b.Status.CanTransitionTo(target) {
		return Event{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	switch target {
	case StatusCompleted:
		if now.Before(b.EndAt()) {
			return Event{}, fmt.Errorf("%w: cannot complete before scheduled end %s",
				ErrInvalidTransition, b.EndAt().Format(time.RFC3339))
		}
	case StatusNoShow:
		if now.Before(b.StartAt) {
			return Event{}, fmt.Errorf("%w: cannot mark no-show before scheduled start %s",
				ErrInvalidTransition, b.StartAt.Format(time.RFC3339))
		}
	}

	old := b.Status
	b.Status = target

	switch target {
	case StatusConfirmed:
		b.ConfirmedAt = &now
	case StatusCancelled:
		b.CancelledAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	}

	return NewStatusChangedEvent(b, old, target, now), nil
}

// ProviderBookingsFilter фильтр для выборки бронирований поставщика услуг
type ProviderBookingsFilter struct {
	ProviderID      int64          // Обязательный параметр
	OverlapFrom     *time.Time     // Начало окна пересечения занятых интервалов (опционально)
	OverlapTo       *time.Time     // Конец окна пересечения занятых интервалов (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли терминальные бронирования
	ExcludeID       *int64         // Исключить бронирование из выборки (перенос не конфликтует сам с собой)
}
