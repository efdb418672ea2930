package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/SPA-BookingService/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований
// Все переходы статусов идут через таблицу переходов доменной модели
// и compare-and-set в хранилище: обновление проходит, только если статус
// в базе всё ещё равен прочитанному
type Service struct {
	bookingRepo  BookingRepository
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	publisher EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for client=%d, status=%v", req.ClientID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByClientID(ctx, req.ClientID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: fetched %d bookings for client=%d", len(bookings), req.ClientID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderBookings получает бронирования провайдера с фильтрацией
// по периоду, статусу и включению терминальных бронирований
func (s *Service) GetProviderBookings(ctx context.Context, req *models.GetProviderBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetProviderBookings: fetching bookings for provider=%d", req.ProviderID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderBookings: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetByProviderWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderBookings: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderBookings: fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}

// Confirm подтверждает ожидающее бронирование (pending -> confirmed)
func (s *Service) Confirm(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	s.logger.Info("Confirm: confirming booking id=%d by actor=%d", bookingID, req.ActorID)
	return s.transition(ctx, bookingID, domain.StatusConfirmed, nil, nil)
}

// Cancel отменяет бронирование (pending/confirmed -> cancelled)
// Если отменяет владелец бронирования, фиксируется отмена клиентом,
// иначе отмена стороной провайдера
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by actor=%d", bookingID, req.ActorID)

	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must not exceed %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	booking, err := s.getForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	cancelledBy := domain.CancelledByProvider
	if booking.ClientID == req.ActorID {
		cancelledBy = domain.CancelledByClient
	}

	return s.transition(ctx, bookingID, domain.StatusCancelled, req.Reason, &cancelledBy)
}

// Complete завершает бронирование (confirmed -> completed)
// Допустимо только после окончания услуги
func (s *Service) Complete(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	s.logger.Info("Complete: completing booking id=%d by actor=%d", bookingID, req.ActorID)
	return s.transition(ctx, bookingID, domain.StatusCompleted, nil, nil)
}

// MarkNoShow фиксирует неявку клиента (confirmed -> no_show)
// Допустимо только после начала услуги
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	s.logger.Info("MarkNoShow: marking booking id=%d as no-show by actor=%d", bookingID, req.ActorID)
	return s.transition(ctx, bookingID, domain.StatusNoShow, nil, nil)
}

// transition выполняет переход статуса через compare-and-set
// При проигрыше гонки перечитывает бронирование: если переход из нового
// статуса тоже недопустим, возвращает ErrInvalidTransition, иначе ErrConflict
func (s *Service) transition(
	ctx context.Context,
	bookingID int64,
	target domain.BookingStatus,
	reason *string,
	cancelledBy *domain.CancelledBy,
) (*models.BookingResponse, error) {
	booking, err := s.getForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now().UTC()
	from := booking.Status

	event, err := booking.Transition(target, now)
	if err != nil {
		s.logger.Warn("transition: booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	booking.CancellationReason = reason
	booking.CancelledBy = cancelledBy
	booking.UpdatedAt = now

	err = s.bookingRepo.UpdateStatus(ctx, bookingID, from, target, now, reason, cancelledBy)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, s.resolveConflict(ctx, bookingID, target)
		}
		s.logger.Error("transition: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: transition - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("transition: booking id=%d moved %s -> %s", bookingID, from, target)

	// Публикуем событие после успешного обновления
	// Ошибка публикации не откатывает переход
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("transition: failed to publish event for booking id=%d: %v", bookingID, err)
	}

	return models.FromDomainBooking(booking), nil
}

// resolveConflict различает проигранную гонку и недопустимый переход
// после того, как compare-and-set не затронул ни одной строки
func (s *Service) resolveConflict(ctx context.Context, bookingID int64, target domain.BookingStatus) error {
	fresh, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("%w: resolveConflict - repository error: %v", ErrInternal, err)
	}

	if !fresh.Status.CanTransitionTo(target) {
		s.logger.Warn("resolveConflict: booking id=%d already %s, cannot move to %s",
			bookingID, fresh.Status, target)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fresh.Status, target)
	}

	s.logger.Warn("resolveConflict: booking id=%d lost concurrent update race", bookingID)
	return ErrConflict
}

func (s *Service) getForUpdate(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("getForUpdate: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("getForUpdate: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}
	return booking, nil
}
