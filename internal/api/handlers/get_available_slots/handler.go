package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SPA-BookingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgInvalidServiceID  = "некорректный ID услуги"
	msgMissingFrom       = "параметр from обязателен"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange      = "некорректный диапазон дат"
	msgDateTooFar        = "дата слишком далеко в будущем"
	msgProviderNotFound  = "провайдер не найден"
	msgServiceNotFound   = "услуга не найдена"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/services/{serviceId}/available-slots
// Query params: from (required, YYYY-MM-DD), to (optional), limit=first (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	serviceID, err := strconv.ParseInt(vars["serviceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	fromStr := r.URL.Query().Get("from")
	if fromStr == "" {
		h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Missing from date")
		handlers.RespondBadRequest(w, msgMissingFrom)
		return
	}
	toStr := r.URL.Query().Get("to")
	firstOnly := r.URL.Query().Get("limit") == "first"

	useCaseReq, err := ToUseCaseRequest(0, providerID, serviceID, fromStr, toStr, firstOnly)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrProviderNotFound):
			h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Provider not found: provider_id=%d", providerID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Service not found: provider_id=%d, service_id=%d",
				providerID, serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrDateTooFarInFuture):
			h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Date too far: provider_id=%d", providerID)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate), errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /providers/{id}/services/{id}/available-slots - Invalid request: provider_id=%d, error=%v",
				providerID, err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		default:
			h.logger.Error("GET /providers/{id}/services/{id}/available-slots - Failed to get slots: provider_id=%d, service_id=%d, error=%v",
				providerID, serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /providers/{id}/services/{id}/available-slots - Slots retrieved: provider_id=%d, service_id=%d, days=%d",
		providerID, serviceID, len(result.Days))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
