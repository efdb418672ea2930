package reschedule_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	"github.com/m04kA/SPA-BookingService/internal/api/middleware"
	rescheduleBooking "github.com/m04kA/SPA-BookingService/internal/usecase/reschedule_booking"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgNotFound           = "бронирование не найдено"
	msgNotReschedulable   = "бронирование нельзя перенести в текущем статусе"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgConflict           = "конфликт одновременного изменения бронирования, повторите запрос"
	msgProviderClosed     = "провайдер не работает в выбранную дату"
	msgInvalidBookingDate = "некорректная дата бронирования"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
	msgInvalidTimeSlot    = "некорректный временной слот"
	msgTooLateToBook      = "слишком поздно для переноса на этот слот"
)

type Handler struct {
	useCase RescheduleBookingUseCase
	logger  Logger
}

func NewHandler(useCase RescheduleBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID, actorID)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, rescheduleBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, rescheduleBooking.ErrNotReschedulable):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Not reschedulable: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgNotReschedulable)

		case errors.Is(err, rescheduleBooking.ErrSlotNotAvailable):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Slot not available: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, rescheduleBooking.ErrConflict):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Concurrent conflict: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, rescheduleBooking.ErrProviderClosed):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Provider closed: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgProviderClosed)

		case errors.Is(err, rescheduleBooking.ErrInvalidDate):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid date: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgInvalidBookingDate)

		case errors.Is(err, rescheduleBooking.ErrDateTooFarInFuture):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Date too far in future: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, rescheduleBooking.ErrInvalidTimeSlot):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid time slot: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, rescheduleBooking.ErrTooLateToBook):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Too late to reschedule: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, rescheduleBooking.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PATCH /bookings/{id}/reschedule - Failed to reschedule: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/reschedule - Booking rescheduled: booking_id=%d, actor_id=%d, start_at=%s",
		bookingID, actorID, result.StartAt)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
