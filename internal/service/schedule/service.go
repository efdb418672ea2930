package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/service/schedule/models"
	"github.com/m04kA/SPA-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/SPA-BookingService/pkg/txmanager"
)

// Service сервис управления расписаниями и конфигурацией бронирований
type Service struct {
	scheduleRepo ScheduleRepository
	configRepo   ConfigRepository
	cache        CacheInvalidator
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	configRepo ConfigRepository,
	cache CacheInvalidator,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		configRepo:   configRepo,
		cache:        cache,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetSchedule получает расписание провайдера
// Переопределения возвращаются за указанный диапазон дат
func (s *Service) GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*models.ScheduleResponse, error) {
	s.logger.Info("GetSchedule: fetching schedule for provider=%d", providerID)

	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	schedule, err := s.scheduleRepo.GetSchedule(ctx, providerID, from, to)
	if err != nil {
		s.logger.Error("GetSchedule: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetSchedule - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSchedule(schedule), nil
}

// ReplaceSchedule полностью заменяет расписание провайдера
// Расписание валидируется целиком до записи, замена идет в сериализуемой
// транзакции, после коммита инвалидируется кеш расписаний
func (s *Service) ReplaceSchedule(ctx context.Context, req *models.ReplaceScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("ReplaceSchedule: replacing schedule for provider=%d", req.ProviderID)

	if req.ProviderID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	schedule, err := req.ToDomainSchedule()
	if err != nil {
		s.logger.Warn("ReplaceSchedule: malformed schedule for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	if err := schedule.Validate(); err != nil {
		s.logger.Warn("ReplaceSchedule: validation failed for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		return s.scheduleRepo.ReplaceSchedule(txCtx, schedule)
	})
	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) || errors.Is(err, simpletxmanager.ErrSerialization) {
			s.logger.Warn("ReplaceSchedule: serialization conflict for provider=%d: %v", req.ProviderID, err)
			return nil, ErrConflict
		}
		s.logger.Error("ReplaceSchedule: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: ReplaceSchedule - repository error: %v", ErrInternal, err)
	}

	// Кеш инвалидируется только после успешного коммита
	s.cache.InvalidateProvider(req.ProviderID)

	s.logger.Info("ReplaceSchedule: successfully replaced schedule for provider=%d", req.ProviderID)
	return models.FromDomainSchedule(schedule), nil
}

// GetConfigs получает все конфигурации бронирований провайдера
func (s *Service) GetConfigs(ctx context.Context, providerID int64) (*models.ConfigListResponse, error) {
	s.logger.Info("GetConfigs: fetching configs for provider=%d", providerID)

	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	configs, err := s.configRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		s.logger.Error("GetConfigs: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetConfigs - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetConfigs: fetched %d configs for provider=%d", len(configs), providerID)
	return models.FromDomainConfigList(configs), nil
}

// UpdateConfig создает или обновляет конфигурацию бронирований
// ServiceID = nil задает конфигурацию на всего провайдера
func (s *Service) UpdateConfig(ctx context.Context, req *models.UpdateConfigRequest) (*models.ConfigResponse, error) {
	s.logger.Info("UpdateConfig: upserting config for provider=%d, service=%v", req.ProviderID, req.ServiceID)

	if err := s.validateConfigData(req); err != nil {
		s.logger.Warn("UpdateConfig: validation failed for provider=%d: %v", req.ProviderID, err)
		return nil, err
	}

	config, err := s.configRepo.Upsert(ctx, req.ToDomainConfig())
	if err != nil {
		s.logger.Error("UpdateConfig: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: UpdateConfig - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateConfig: successfully upserted config id=%d", config.ID)
	return models.FromDomainConfig(config), nil
}

// validateConfigData проверяет границы параметров конфигурации
func (s *Service) validateConfigData(req *models.UpdateConfigRequest) error {
	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.GranularityMinutes < domain.MinGranularityMinutes || req.GranularityMinutes > domain.MaxGranularityMinutes {
		return fmt.Errorf("%w: granularityMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinGranularityMinutes, domain.MaxGranularityMinutes)
	}

	if req.MinLeadTimeMinutes < domain.MinLeadTimeMinutes || req.MinLeadTimeMinutes > domain.MaxLeadTimeMinutes {
		return fmt.Errorf("%w: minLeadTimeMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinLeadTimeMinutes, domain.MaxLeadTimeMinutes)
	}

	if req.AdvanceBookingDays < domain.MinAdvanceBookingDays || req.AdvanceBookingDays > domain.MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advanceBookingDays must be between %d and %d",
			ErrInvalidInput, domain.MinAdvanceBookingDays, domain.MaxAdvanceBookingDays)
	}

	return nil
}
