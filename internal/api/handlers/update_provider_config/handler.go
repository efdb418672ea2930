package update_provider_config

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

// Handle PUT /api/v1/providers/{providerId}/config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /providers/{id}/config - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	var req models.UpdateConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /providers/{id}/config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ProviderID = providerID

	result, err := h.service.UpdateConfig(r.Context(), &req)
	if err != nil {
		if errors.Is(err, scheduleService.ErrInvalidInput) {
			h.logger.Warn("PUT /providers/{id}/config - Invalid input: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
		h.logger.Error("PUT /providers/{id}/config - Failed to update config: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /providers/{id}/config - Config updated: provider_id=%d, config_id=%d", providerID, result.ID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
