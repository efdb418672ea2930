package get_available_slots

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SPA-BookingService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	ProviderID int64     `json:"providerId"`
	ServiceID  int64     `json:"serviceId"`
	Days       []DaySlot `json:"days"`
}

// DaySlot доступные слоты на один день
type DaySlot struct {
	Date  string          `json:"date"`
	Slots []AvailableSlot `json:"slots"`
}

// AvailableSlot модель доступного временного слота
type AvailableSlot struct {
	StartTime       string `json:"startTime"`
	StartAt         string `json:"startAt"` // ISO 8601, UTC
	DurationMinutes int    `json:"durationMinutes"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	days := make([]DaySlot, len(resp.Days))
	for i, day := range resp.Days {
		slots := make([]AvailableSlot, len(day.Slots))
		for j, slot := range day.Slots {
			slots[j] = AvailableSlot{
				StartTime:       slot.StartTime.String(),
				StartAt:         slot.StartAt.Format(time.RFC3339),
				DurationMinutes: slot.DurationMinutes,
			}
		}
		days[i] = DaySlot{
			Date:  day.Date.Format(domain.DateFormat),
			Slots: slots,
		}
	}

	return &AvailableSlotsResponse{
		ProviderID: resp.ProviderID,
		ServiceID:  resp.ServiceID,
		Days:       days,
	}
}

// ToUseCaseRequest создает запрос use case из path и query параметров
// Пустой to означает запрос на один день from
func ToUseCaseRequest(userID, providerID, serviceID int64, fromStr, toStr string, firstOnly bool) (*getAvailableSlots.Request, error) {
	from, err := time.ParseInLocation(domain.DateFormat, fromStr, time.UTC)
	if err != nil {
		return nil, err
	}

	to := from
	if toStr != "" {
		to, err = time.ParseInLocation(domain.DateFormat, toStr, time.UTC)
		if err != nil {
			return nil, err
		}
	}

	return &getAvailableSlots.Request{
		UserID:     userID,
		ProviderID: providerID,
		ServiceID:  serviceID,
		From:       from,
		To:         to,
		FirstOnly:  firstOnly,
	}, nil
}
