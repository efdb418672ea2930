package get_provider_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidFilter     = "некорректные параметры фильтрации"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/bookings
// Query params: from, to (YYYY-MM-DD), status, includeInactive=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/bookings - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	query := r.URL.Query()
	serviceReq, err := ToServiceRequest(
		providerID,
		query.Get("from"),
		query.Get("to"),
		query.Get("status"),
		query.Get("includeInactive") == "true",
	)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/bookings - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.service.GetProviderBookings(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidInput) {
			h.logger.Warn("GET /providers/{id}/bookings - Invalid filter: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)
			return
		}
		h.logger.Error("GET /providers/{id}/bookings - Failed to get bookings: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/bookings - Bookings retrieved: provider_id=%d, count=%d",
		providerID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result.Bookings)
}
