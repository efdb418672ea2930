package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/config"
	catalogClient "github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
	"github.com/m04kA/SPA-BookingService/pkg/ptr"
	"github.com/m04kA/SPA-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/SPA-BookingService/pkg/txmanager"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	configRepo    ConfigRepository
	schedules     ScheduleProvider
	catalogClient CatalogServiceClient
	publisher     EventPublisher
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	configRepo ConfigRepository,
	schedules ScheduleProvider,
	catalogClient CatalogServiceClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		configRepo:    configRepo,
		schedules:     schedules,
		catalogClient: catalogClient,
		publisher:     publisher,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию для предотвращения гонки данных:
// при одновременных запросах на один слот будет создано ровно одно бронирование
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%d, provider=%d, service=%d, date=%s, time=%s",
		req.ClientID, req.ProviderID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now().UTC()

	// 3. Проверяем существование провайдера
	if _, err := uc.catalogClient.GetProvider(ctx, req.ProviderID); err != nil {
		if errors.Is(err, catalogClient.ErrProviderNotFound) {
			uc.logger.Warn("CreateBooking: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("CreateBooking: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Получаем услугу: из нее берем длительность, буфер и название
	service, err := uc.catalogClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if err := validateServiceSnapshot(service.DurationMinutes, service.BufferMinutes); err != nil {
		uc.logger.Error("CreateBooking: invalid service snapshot id=%d: %v", req.ServiceID, err)
		return nil, err
	}

	var result *domain.Booking

	// 5. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 5.1. Получаем конфигурацию бронирований с учетом иерархии
		config, err := uc.configRepo.GetConfigWithHierarchy(txCtx, req.ProviderID, ptr.Ptr(req.ServiceID))
		if err != nil {
			if !errors.Is(err, configRepo.ErrConfigNotFound) {
				uc.logger.Error("CreateBooking: failed to get config: %v", err)
				return fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
			}
			config = domain.DefaultBookingConfig(req.ProviderID)
			uc.logger.Info("CreateBooking: using default config for provider=%d, service=%d",
				req.ProviderID, req.ServiceID)
		}

		// 5.2. Валидация даты с учетом конфигурации
		if err := validateDate(req.Date, now, config); err != nil {
			uc.logger.Warn("CreateBooking: date validation failed: %v", err)
			return err
		}

		// 5.3. Получаем рабочие часы на указанную дату
		schedule, err := uc.schedules.GetSchedule(txCtx, req.ProviderID, req.Date, req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get schedule: %v", err)
			return fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
		}

		day := schedule.EffectiveDay(req.Date)
		if day == nil {
			uc.logger.Warn("CreateBooking: provider is closed on %s", req.Date.Format(domain.DateFormat))
			return ErrProviderClosed
		}

		// 5.4. Проверяем, что слот лежит на сетке и помещается в рабочие часы
		if err := validateSlotFits(day, req.StartTime, config.GranularityMinutes, service.DurationMinutes); err != nil {
			uc.logger.Warn("CreateBooking: slot validation failed: %v", err)
			return err
		}

		// 5.5. Проверяем минимальный интервал до записи
		startAt := req.StartTime.OnDate(req.Date)
		if err := validateLeadTime(startAt, now, config.MinLeadTimeMinutes); err != nil {
			uc.logger.Warn("CreateBooking: lead time validation failed: %v", err)
			return err
		}

		// 5.6. Получаем активные бронирования, пересекающиеся с кандидатом,
		// с блокировкой (FOR UPDATE). Кандидат занимает интервал с буфером
		occupiedEnd := startAt.Add(occupiedSpan(service.DurationMinutes, service.BufferMinutes))
		bookings, err := uc.bookingRepo.GetByProviderWithFilter(txCtx, domain.ProviderBookingsFilter{
			ProviderID:  req.ProviderID,
			OverlapFrom: &startAt,
			OverlapTo:   &occupiedEnd,
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 5.7. Проверяем доступность слота
		for _, existing := range bookings {
			if !existing.IsActive() {
				continue
			}
			if startAt.Before(existing.OccupiedUntil()) && existing.StartAt.Before(occupiedEnd) {
				uc.logger.Warn("CreateBooking: slot %s taken by booking id=%d", req.StartTime, existing.ID)
				return ErrSlotNotAvailable
			}
		}

		// 5.8. Создаем бронирование со снапшотом данных услуги
		booking := &domain.Booking{
			Number:          domain.NewBookingNumber(),
			ProviderID:      req.ProviderID,
			ClientID:        req.ClientID,
			ServiceID:       req.ServiceID,
			ServiceName:     service.Name,
			DurationMinutes: service.DurationMinutes,
			BufferMinutes:   service.BufferMinutes,
			StartAt:         startAt,
			Status:          domain.StatusPending,
			Notes:           req.Notes,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				return err
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		// Ограничение непересечения в базе сработало раньше проверки в коде
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			uc.logger.Warn("CreateBooking: exclusion constraint rejected slot: %v", err)
			return nil, ErrSlotNotAvailable
		}
		if errors.Is(err, txmanager.ErrSerialization) || errors.Is(err, simpletxmanager.ErrSerialization) {
			uc.logger.Warn("CreateBooking: serialization conflict: %v", err)
			return nil, ErrConflict
		}
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d number=%s", result.ID, result.Number)

	// 6. Публикуем событие после коммита. Ошибка публикации не откатывает бронирование
	event := domain.NewCreatedEvent(result, uc.timeProvider.Now().UTC())
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: failed to publish event for booking id=%d: %v", result.ID, err)
	}

	return toResponse(result), nil
}

// occupiedSpan интервал, который занимает бронирование: услуга плюс буфер
func occupiedSpan(durationMinutes, bufferMinutes int) time.Duration {
	return time.Duration(durationMinutes+bufferMinutes) * time.Minute
}

// toResponse конвертирует доменную модель в response
func toResponse(b *domain.Booking) *Response {
	return &Response{
		ID:              b.ID,
		Number:          b.Number,
		ClientID:        b.ClientID,
		ProviderID:      b.ProviderID,
		ServiceID:       b.ServiceID,
		StartAt:         b.StartAt,
		StartTime:       types.NewTimeString(b.StartAt),
		DurationMinutes: b.DurationMinutes,
		BufferMinutes:   b.BufferMinutes,
		Status:          string(b.Status),
		ServiceName:     b.ServiceName,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
