package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SPA-BookingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

var configColumns = []string{
	"id",
	"provider_id",
	"service_id",
	"granularity_minutes",
	"min_lead_time_minutes",
	"advance_booking_days",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с конфигурацией бронирования
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetConfigWithHierarchy получает конфигурацию с учетом иерархии приоритетов:
// конфигурация для конкретной услуги приоритетнее общей конфигурации поставщика.
// Возвращает ErrConfigNotFound, если нет ни одной - вызывающий подставляет дефолты
func (r *Repository) GetConfigWithHierarchy(ctx context.Context, providerID int64, serviceID *int64) (*domain.ProviderBookingConfig, error) {
	if serviceID != nil {
		cfg, err := r.getBy(ctx, squirrel.Eq{"provider_id": providerID, "service_id": *serviceID})
		if err == nil {
			return cfg, nil
		}
		if err != ErrConfigNotFound {
			return nil, err
		}
	}

	return r.getBy(ctx, squirrel.Eq{"provider_id": providerID, "service_id": nil})
}

// GetByProviderID получает все конфигурации поставщика (общую и по услугам)
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) ([]*domain.ProviderBookingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(configColumns...).
		From("provider_booking_config").
		Where(squirrel.Eq{"provider_id": providerID}).
		OrderBy("service_id ASC NULLS FIRST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	configs := make([]*domain.ProviderBookingConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByProviderID - scan row: %v", ErrScanRow, err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - rows error: %v", ErrScanRow, err)
	}

	return configs, nil
}

// Upsert создает или обновляет конфигурацию по ключу (provider_id, service_id)
func (r *Repository) Upsert(ctx context.Context, cfg *domain.ProviderBookingConfig) (*domain.ProviderBookingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("provider_booking_config").
		Columns(
			"provider_id",
			"service_id",
			"granularity_minutes",
			"min_lead_time_minutes",
			"advance_booking_days",
		).
		Values(
			cfg.ProviderID,
			cfg.ServiceID,
			cfg.GranularityMinutes,
			cfg.MinLeadTimeMinutes,
			cfg.AdvanceBookingDays,
		).
		Suffix(`ON CONFLICT (provider_id, COALESCE(service_id, 0)) DO UPDATE SET
			granularity_minutes = EXCLUDED.granularity_minutes,
			min_lead_time_minutes = EXCLUDED.min_lead_time_minutes,
			advance_booking_days = EXCLUDED.advance_booking_days,
			updated_at = NOW()
			RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&cfg.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return cfg, nil
}

func (r *Repository) getBy(ctx context.Context, where squirrel.Eq) (*domain.ProviderBookingConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(configColumns...).
		From("provider_booking_config").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getBy - build select query: %v", ErrBuildQuery, err)
	}

	cfg, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getBy - scan config: %v", ErrScanRow, err)
	}

	return cfg, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*domain.ProviderBookingConfig, error) {
	var cfg domain.ProviderBookingConfig
	var serviceID sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&cfg.ID,
		&cfg.ProviderID,
		&serviceID,
		&cfg.GranularityMinutes,
		&cfg.MinLeadTimeMinutes,
		&cfg.AdvanceBookingDays,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if serviceID.Valid {
		cfg.ServiceID = &serviceID.Int64
	}
	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return &cfg, nil
}
