package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SPA-BookingService/internal/api/handlers"
	"github.com/m04kA/SPA-BookingService/internal/api/middleware"
	createBooking "github.com/m04kA/SPA-BookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "пользователь не аутентифицирован"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgConflict           = "конфликт одновременного бронирования, повторите запрос"
	msgProviderNotFound   = "провайдер не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgProviderClosed     = "провайдер не работает в выбранную дату"
	msgInvalidBookingDate = "некорректная дата бронирования"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
	msgInvalidTimeSlot    = "некорректный временной слот"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID in context")
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrConflict):
			h.logger.Warn("POST /bookings - Concurrent conflict: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, createBooking.ErrProviderNotFound):
			h.logger.Warn("POST /bookings - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: provider_id=%d, service_id=%d", req.ProviderID, req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrProviderClosed):
			h.logger.Warn("POST /bookings - Provider closed: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgProviderClosed)

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /bookings - Invalid booking date: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgInvalidBookingDate)

		case errors.Is(err, createBooking.ErrDateTooFarInFuture):
			h.logger.Warn("POST /bookings - Date too far in future: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /bookings - Too late to book: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: client_id=%d, error=%v", clientID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: client_id=%d, provider_id=%d, error=%v",
				clientID, req.ProviderID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created: booking_id=%d, number=%s, client_id=%d, provider_id=%d",
		result.ID, result.Number, clientID, req.ProviderID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
