package models

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	ActorID int64   `json:"actorId"`
	Reason  *string `json:"reason,omitempty"`
}

// TransitionRequest запрос на переход статуса (confirm / complete / no_show)
type TransitionRequest struct {
	ActorID int64 `json:"actorId"`
}

// GetUserBookingsRequest запрос на получение бронирований клиента
type GetUserBookingsRequest struct {
	ClientID int64   `json:"clientId"`
	Status   *string `json:"status,omitempty"`
}

// GetProviderBookingsRequest запрос на получение бронирований провайдера
type GetProviderBookingsRequest struct {
	ProviderID      int64      `json:"providerId"`
	From            *time.Time `json:"from,omitempty"`            // Начало периода (опционально)
	To              *time.Time `json:"to,omitempty"`              // Конец периода (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить терминальные бронирования
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderBookingsRequest) ToDomainFilter() (domain.ProviderBookingsFilter, error) {
	filter := domain.ProviderBookingsFilter{
		ProviderID:      r.ProviderID,
		OverlapFrom:     r.From,
		OverlapTo:       r.To,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	Number          string `json:"number"`
	ClientID        int64  `json:"clientId"`
	ProviderID      int64  `json:"providerId"`
	ServiceID       int64  `json:"serviceId"`
	StartAt         string `json:"startAt"` // ISO 8601, UTC
	Date            string `json:"date"`    // "2026-09-15"
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	BufferMinutes   int    `json:"bufferMinutes"`
	Status          string `json:"status"`

	// Снапшот данных услуги
	ServiceName string  `json:"serviceName"`
	Notes       *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledBy        *string `json:"cancelledBy,omitempty"`
	ConfirmedAt        *string `json:"confirmedAt,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`
	CompletedAt        *string `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:              b.ID,
		Number:          b.Number,
		ClientID:        b.ClientID,
		ProviderID:      b.ProviderID,
		ServiceID:       b.ServiceID,
		StartAt:         b.StartAt.Format(time.RFC3339),
		Date:            b.StartAt.Format(domain.DateFormat),
		StartTime:       b.StartAt.Format(domain.TimeFormat),
		DurationMinutes: b.DurationMinutes,
		BufferMinutes:   b.BufferMinutes,
		Status:          string(b.Status),
		ServiceName:     b.ServiceName,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}

	resp.CancellationReason = b.CancellationReason
	if b.CancelledBy != nil {
		cancelledBy := string(*b.CancelledBy)
		resp.CancelledBy = &cancelledBy
	}
	resp.ConfirmedAt = formatTimestamp(b.ConfirmedAt)
	resp.CancelledAt = formatTimestamp(b.CancelledAt)
	resp.CompletedAt = formatTimestamp(b.CompletedAt)

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	result := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		result.Bookings = append(result.Bookings, *FromDomainBooking(b))
	}
	return result
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
