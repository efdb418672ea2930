package confirm_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	"github.com/m04kA/SPA-BookingService/internal/api/middleware"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings/models"
)

const (
	msgInvalidBookingID  = "некорректный ID бронирования"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgNotFound          = "бронирование не найдено"
	msgInvalidTransition = "бронирование нельзя подтвердить в текущем статусе"
	msgConflict          = "конфликт одновременного изменения статуса, повторите запрос"
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

// Handle PATCH /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/confirm - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.Confirm(r.Context(), bookingID, &models.TransitionRequest{ActorID: actorID})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Invalid transition: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, bookings.ErrConflict):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Concurrent conflict: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgConflict)

		default:
			h.logger.Error("PATCH /bookings/{id}/confirm - Failed to confirm: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/confirm - Booking confirmed: booking_id=%d, actor_id=%d", bookingID, actorID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
