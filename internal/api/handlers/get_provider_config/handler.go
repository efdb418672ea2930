package get_provider_config

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
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

// Handle GET /api/v1/providers/{providerId}/config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/config - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	result, err := h.service.GetConfigs(r.Context(), providerID)
	if err != nil {
		h.logger.Error("GET /providers/{id}/config - Failed to get configs: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/config - Configs retrieved: provider_id=%d, count=%d",
		providerID, len(result.Configs))
	handlers.RespondJSON(w, http.StatusOK, result)
}
