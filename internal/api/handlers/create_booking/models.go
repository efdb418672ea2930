package create_booking

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	createBooking "github.com/m04kA/SPA-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ProviderID int64   `json:"providerId"`
	ServiceID  int64   `json:"serviceId"`
	Date       string  `json:"date"`      // "2026-09-15"
	StartTime  string  `json:"startTime"` // "10:00"
	Notes      *string `json:"notes,omitempty"`
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
	DurationMinutes int     `json:"durationMinutes"`
	BufferMinutes   int     `json:"bufferMinutes"`
	Status          string  `json:"status"`
	ServiceName     string  `json:"serviceName"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID int64) (*createBooking.Request, error) {
	date, err := time.ParseInLocation(domain.DateFormat, r.Date, time.UTC)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		ClientID:   clientID,
		ProviderID: r.ProviderID,
		ServiceID:  r.ServiceID,
		Date:       date,
		StartTime:  startTime,
		Notes:      r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              resp.ID,
		Number:          resp.Number,
		ClientID:        resp.ClientID,
		ProviderID:      resp.ProviderID,
		ServiceID:       resp.ServiceID,
		Date:            resp.StartAt.Format(domain.DateFormat),
		StartTime:       resp.StartTime.String(),
		StartAt:         resp.StartAt.Format(time.RFC3339),
		DurationMinutes: resp.DurationMinutes,
		BufferMinutes:   resp.BufferMinutes,
		Status:          resp.Status,
		ServiceName:     resp.ServiceName,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
