package reschedule_booking

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	rescheduleBooking "github.com/m04kA/SPA-BookingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	Date      string `json:"date"`      // "2026-09-15"
	StartTime string `json:"startTime"` // "10:00"
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64   `json:"id"`
	Number          string  `json:"number"`
	ClientID        int64   `json:"clientId"`
	ProviderID      int64   `json:"providerId"`
	ServiceID       int64   `json:"serviceId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	StartAt         string  `json:"startAt"`
	OldStartAt      string  `json:"oldStartAt"`
	DurationMinutes int     `json:"durationMinutes"`
	BufferMinutes   int     `json:"bufferMinutes"`
	Status          string  `json:"status"`
	ServiceName     string  `json:"serviceName"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleBookingRequest) ToUseCaseRequest(bookingID, actorID int64) (*rescheduleBooking.Request, error) {
	date, err := time.ParseInLocation(domain.DateFormat, r.Date, time.UTC)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &rescheduleBooking.Request{
		BookingID: bookingID,
		ActorID:   actorID,
		Date:      date,
		StartTime: startTime,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *rescheduleBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              resp.ID,
		Number:          resp.Number,
		ClientID:        resp.ClientID,
		ProviderID:      resp.ProviderID,
		ServiceID:       resp.ServiceID,
		Date:            resp.StartAt.Format(domain.DateFormat),
		StartTime:       resp.StartTime.String(),
		StartAt:         resp.StartAt.Format(time.RFC3339),
		OldStartAt:      resp.OldStartAt.Format(time.RFC3339),
		DurationMinutes: resp.DurationMinutes,
		BufferMinutes:   resp.BufferMinutes,
		Status:          resp.Status,
		ServiceName:     resp.ServiceName,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
