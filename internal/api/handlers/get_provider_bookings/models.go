package get_provider_bookings

import (
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings/models"
)

// ToServiceRequest создает запрос сервиса из path и query параметров
// Параметры from/to задают период, конец периода захватывает весь день to
func ToServiceRequest(providerID int64, fromStr, toStr, status string, includeInactive bool) (*models.GetProviderBookingsRequest, error) {
	req := &models.GetProviderBookingsRequest{
		ProviderID:      providerID,
		IncludeInactive: includeInactive,
	}

	if fromStr != "" {
		from, err := time.ParseInLocation(domain.DateFormat, fromStr, time.UTC)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}

	if toStr != "" {
		to, err := time.ParseInLocation(domain.DateFormat, toStr, time.UTC)
		if err != nil {
			return nil, err
		}
		endOfDay := to.AddDate(0, 0, 1)
		req.To = &endOfDay
	}

	if status != "" {
		req.Status = &status
	}

	return req, nil
}
