package update_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	scheduleService "github.com/m04kA/SPA-BookingService/internal/service/schedule"
	"github.com/m04kA/SPA-BookingService/internal/service/schedule/models"
)

const (
	msgInvalidProviderID  = "некорректный ID провайдера"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSchedule    = "расписание не прошло валидацию"
	msgConflict           = "конфликт одновременного изменения расписания, повторите запрос"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/providers/{providerId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /providers/{id}/schedule - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	var req models.ReplaceScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /providers/{id}/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ProviderID = providerID

	result, err := h.service.ReplaceSchedule(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, scheduleService.ErrInvalidSchedule):
			h.logger.Warn("PUT /providers/{id}/schedule - Invalid schedule: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidSchedule)

		case errors.Is(err, scheduleService.ErrConflict):
			h.logger.Warn("PUT /providers/{id}/schedule - Concurrent conflict: provider_id=%d", providerID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, scheduleService.ErrInvalidInput):
			h.logger.Warn("PUT /providers/{id}/schedule - Invalid input: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PUT /providers/{id}/schedule - Failed to replace schedule: provider_id=%d, error=%v",
				providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /providers/{id}/schedule - Schedule replaced: provider_id=%d", providerID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
