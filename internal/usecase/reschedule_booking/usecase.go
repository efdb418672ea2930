package reschedule_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/config"
	"github.com/m04kA/SPA-BookingService/pkg/ptr"
	"github.com/m04kA/SPA-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/SPA-BookingService/pkg/txmanager"
)

// UseCase use case для переноса бронирования на новое время
type UseCase struct {
	bookingRepo  BookingRepository
	configRepo   ConfigRepository
	schedules    ScheduleProvider
	publisher    EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	configRepo ConfigRepository,
	schedules ScheduleProvider,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		configRepo:   configRepo,
		schedules:    schedules,
		publisher:    publisher,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case переноса бронирования
// Длительность и буфер берутся из снапшота бронирования, каталог не опрашивается.
// Перенос выполняется в сериализуемой транзакции: бронирование блокируется
// чтением FOR UPDATE, новый слот проверяется так же, как при создании,
// сам переносимый интервал из проверки исключается
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleBooking: booking=%d, actor=%d, date=%s, time=%s",
		req.BookingID, req.ActorID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now().UTC()

	var result *domain.Booking
	var oldStartAt time.Time

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Читаем бронирование с блокировкой строки
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("RescheduleBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 3.2. Переносить можно только активное бронирование
		if !booking.IsActive() {
			uc.logger.Warn("RescheduleBooking: booking id=%d is in terminal status %s", booking.ID, booking.Status)
			return fmt.Errorf("%w: status is %s", ErrNotReschedulable, booking.Status)
		}

		// 3.3. Получаем конфигурацию бронирований с учетом иерархии
		config, err := uc.configRepo.GetConfigWithHierarchy(txCtx, booking.ProviderID, ptr.Ptr(booking.ServiceID))
		if err != nil {
			if !errors.Is(err, configRepo.ErrConfigNotFound) {
				uc.logger.Error("RescheduleBooking: failed to get config: %v", err)
				return fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
			}
			config = domain.DefaultBookingConfig(booking.ProviderID)
			uc.logger.Info("RescheduleBooking: using default config for provider=%d, service=%d",
				booking.ProviderID, booking.ServiceID)
		}

		// 3.4. Валидация новой даты с учетом конфигурации
		if err := validateDate(req.Date, now, config); err != nil {
			uc.logger.Warn("RescheduleBooking: date validation failed: %v", err)
			return err
		}

		// 3.5. Получаем рабочие часы на новую дату
		schedule, err := uc.schedules.GetSchedule(txCtx, booking.ProviderID, req.Date, req.Date)
		if err != nil {
			uc.logger.Error("RescheduleBooking: failed to get schedule: %v", err)
			return fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
		}

		day := schedule.EffectiveDay(req.Date)
		if day == nil {
			uc.logger.Warn("RescheduleBooking: provider is closed on %s", req.Date.Format(domain.DateFormat))
			return ErrProviderClosed
		}

		// 3.6. Проверяем, что новый слот лежит на сетке и помещается в рабочие часы.
		// Длительность берется из снапшота бронирования
		if err := validateSlotFits(day, req.StartTime, config.GranularityMinutes, booking.DurationMinutes); err != nil {
			uc.logger.Warn("RescheduleBooking: slot validation failed: %v", err)
			return err
		}

		// 3.7. Проверяем минимальный интервал до нового начала
		startAt := req.StartTime.OnDate(req.Date)
		if err := validateLeadTime(startAt, now, config.MinLeadTimeMinutes); err != nil {
			uc.logger.Warn("RescheduleBooking: lead time validation failed: %v", err)
			return err
		}

		// 3.8. Получаем активные бронирования, пересекающиеся с новым интервалом,
		// с блокировкой (FOR UPDATE). Переносимое бронирование исключаем:
		// оно не конфликтует само с собой
		occupiedEnd := startAt.Add(occupiedSpan(booking.DurationMinutes, booking.BufferMinutes))
		conflicts, err := uc.bookingRepo.GetByProviderWithFilter(txCtx, domain.ProviderBookingsFilter{
			ProviderID:  booking.ProviderID,
			OverlapFrom: &startAt,
			OverlapTo:   &occupiedEnd,
			ExcludeID:   &booking.ID,
		})
		if err != nil {
			uc.logger.Error("RescheduleBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 3.9. Проверяем доступность нового слота
		for _, existing := range conflicts {
			if !existing.IsActive() {
				continue
			}
			if startAt.Before(existing.OccupiedUntil()) && existing.StartAt.Before(occupiedEnd) {
				uc.logger.Warn("RescheduleBooking: slot %s taken by booking id=%d", req.StartTime, existing.ID)
				return ErrSlotNotAvailable
			}
		}

		// 3.10. Переносим бронирование. CAS по статусу: строка заблокирована FOR UPDATE,
		// но статус в условии оставляем той же страховкой, что и у переходов
		if err := uc.bookingRepo.UpdateStartAt(txCtx, booking.ID, booking.Status, startAt, now); err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				return err
			}
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: booking status changed concurrently", ErrConflict)
			}
			uc.logger.Error("RescheduleBooking: failed to update start time: %v", err)
			return fmt.Errorf("%w: failed to update start time: %v", ErrInternal, err)
		}

		oldStartAt = booking.StartAt
		booking.StartAt = startAt
		booking.UpdatedAt = now
		result = booking
		return nil
	})

	if err != nil {
		// Ограничение непересечения в базе сработало раньше проверки в коде
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			uc.logger.Warn("RescheduleBooking: exclusion constraint rejected slot: %v", err)
			return nil, ErrSlotNotAvailable
		}
		if errors.Is(err, txmanager.ErrSerialization) || errors.Is(err, simpletxmanager.ErrSerialization) {
			uc.logger.Warn("RescheduleBooking: serialization conflict: %v", err)
			return nil, ErrConflict
		}
		return nil, err
	}

	uc.logger.Info("RescheduleBooking: booking id=%d moved from %s to %s",
		result.ID, oldStartAt.Format(time.RFC3339), result.StartAt.Format(time.RFC3339))

	// 4. Публикуем событие после коммита. Ошибка публикации не откатывает перенос
	event := domain.NewRescheduledEvent(result, oldStartAt, uc.timeProvider.Now().UTC())
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("RescheduleBooking: failed to publish event for booking id=%d: %v", result.ID, err)
	}

	return toResponse(result, oldStartAt), nil
}

// occupiedSpan интервал, который занимает бронирование: услуга плюс буфер
func occupiedSpan(durationMinutes, bufferMinutes int) time.Duration {
	return time.Duration(durationMinutes+bufferMinutes) * time.Minute
}
