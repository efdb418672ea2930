package get_schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	"github.com/m04kA/SPA-BookingService/internal/domain"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"

	// Сколько дней переопределений возвращать, если диапазон не задан
	defaultOverridesWindowDays = 31
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

// Handle GET /api/v1/providers/{providerId}/schedule
// Query params: from, to (optional, YYYY-MM-DD) - диапазон переопределений
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/schedule - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, defaultOverridesWindowDays)

	query := r.URL.Query()
	if fromStr := query.Get("from"); fromStr != "" {
		from, err = time.ParseInLocation(domain.DateFormat, fromStr, time.UTC)
		if err != nil {
			h.logger.Warn("GET /providers/{id}/schedule - Invalid from date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err = time.ParseInLocation(domain.DateFormat, toStr, time.UTC)
		if err != nil {
			h.logger.Warn("GET /providers/{id}/schedule - Invalid to date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
	}

	result, err := h.service.GetSchedule(r.Context(), providerID, from, to)
	if err != nil {
		h.logger.Error("GET /providers/{id}/schedule - Failed to get schedule: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/schedule - Schedule retrieved: provider_id=%d", providerID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
