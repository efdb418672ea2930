package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	configRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/config"
	catalogClient "github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
	"github.com/m04kA/SPA-BookingService/pkg/ptr"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	configRepo    ConfigRepository
	schedules     ScheduleProvider
	catalogClient CatalogServiceClient
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	configRepo ConfigRepository,
	schedules ScheduleProvider,
	catalogClient CatalogServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		configRepo:    configRepo,
		schedules:     schedules,
		catalogClient: catalogClient,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, provider=%d, service=%d, from=%s, to=%s",
		req.UserID, req.ProviderID, req.ServiceID,
		req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now().UTC()

	// 3. Проверяем существование провайдера
	if _, err := uc.catalogClient.GetProvider(ctx, req.ProviderID); err != nil {
		if errors.Is(err, catalogClient.ErrProviderNotFound) {
			uc.logger.Warn("GetAvailableSlots: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Получаем услугу: из нее берем длительность и буфер
	service, err := uc.catalogClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if err := validateServiceSnapshot(service.DurationMinutes, service.BufferMinutes); err != nil {
		uc.logger.Error("GetAvailableSlots: invalid service snapshot id=%d: %v", req.ServiceID, err)
		return nil, err
	}

	// 5. Получаем конфигурацию бронирований с учетом иерархии
	config, err := uc.configRepo.GetConfigWithHierarchy(ctx, req.ProviderID, ptr.Ptr(req.ServiceID))
	if err != nil {
		if !errors.Is(err, configRepo.ErrConfigNotFound) {
			uc.logger.Error("GetAvailableSlots: failed to get config: %v", err)
			return nil, fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
		}
		// Конфигурация не найдена, используем дефолтные значения
		config = domain.DefaultBookingConfig(req.ProviderID)
		uc.logger.Info("GetAvailableSlots: using default config for provider=%d, service=%d",
			req.ProviderID, req.ServiceID)
	}

	// 6. Валидация диапазона дат с учетом конфигурации
	if err := validateRange(req.From, req.To, now, config); err != nil {
		uc.logger.Warn("GetAvailableSlots: date range validation failed: %v", err)
		return nil, err
	}

	// 7. Получаем расписание провайдера на диапазон
	schedule, err := uc.schedules.GetSchedule(ctx, req.ProviderID, req.From, req.To)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get schedule: %v", err)
		return nil, fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
	}

	// 8. Получаем активные бронирования, пересекающиеся с диапазоном.
	// Окно захватывает весь последний день диапазона
	windowFrom := truncateToDay(req.From)
	windowTo := truncateToDay(req.To).AddDate(0, 0, 1)
	bookings, err := uc.bookingRepo.GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{
		ProviderID:  req.ProviderID,
		OverlapFrom: &windowFrom,
		OverlapTo:   &windowTo,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 9. Минимальное время начала: сейчас плюс минимальный интервал до записи
	minStart := now.Add(time.Duration(config.MinLeadTimeMinutes) * time.Minute)

	// 10. Генерируем и фильтруем слоты по каждому дню диапазона
	days := make([]DayAvailability, 0, daysBetween(req.From, req.To)+1)
	totalSlots := 0

	for date := truncateToDay(req.From); !date.After(truncateToDay(req.To)); date = date.AddDate(0, 0, 1) {
		day := schedule.EffectiveDay(date)

		candidates, err := generateDaySlots(day, date, config.GranularityMinutes, service.DurationMinutes)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to generate slots for %s: %v",
				date.Format(domain.DateFormat), err)
			return nil, fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
		}

		available := filterAvailable(candidates, bookings, service.DurationMinutes, service.BufferMinutes, minStart)
		totalSlots += len(available)

		if req.FirstOnly && len(available) > 0 {
			return &Response{
				ProviderID: req.ProviderID,
				ServiceID:  req.ServiceID,
				Days: []DayAvailability{
					{Date: date, Slots: available[:1]},
				},
			}, nil
		}

		days = append(days, DayAvailability{Date: date, Slots: available})
	}

	// В режиме первого слота пустой список дней означает, что слотов нет
	if req.FirstOnly {
		days = []DayAvailability{}
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for provider=%d, service=%d",
		totalSlots, req.ProviderID, req.ServiceID)

	return &Response{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		Days:       days,
	}, nil
}
