package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SPA-BookingService/pkg/psqlbuilder"
)

// Postgres SQLSTATE exclusion_violation - нарушение exclusion constraint по занятым интервалам
const codeExclusionViolation = "23P01"

var bookingColumns = []string{
	"id",
	"number",
	"provider_id",
	"client_id",
	"service_id",
	"service_name",
	"duration_minutes",
	"buffer_minutes",
	"start_at",
	"status",
	"notes",
	"cancellation_reason",
	"cancelled_by",
	"confirmed_at",
	"cancelled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
//
// Вставка защищена exclusion constraint по (provider_id, занятый интервал):
// даже если прикладная проверка пересечений проскочила гонку, БД не даст
// закоммитить два активных бронирования с пересекающимися интервалами.
// Нарушение constraint транслируется в ErrSlotTaken.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"number",
			"provider_id",
			"client_id",
			"service_id",
			"service_name",
			"duration_minutes",
			"buffer_minutes",
			"start_at",
			"status",
			"notes",
		).
		Values(
			booking.Number,
			booking.ProviderID,
			booking.ClientID,
			booking.ServiceID,
			booking.ServiceName,
			booking.DurationMinutes,
			booking.BufferMinutes,
			booking.StartAt,
			booking.Status,
			booking.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codeExclusionViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	// Внутри транзакции чтение блокирует строку: путь переноса бронирования
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByClientID получает список бронирований клиента
// Опционально фильтрует по статусу
func (r *Repository) GetByClientID(ctx context.Context, clientID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("start_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByProviderWithFilter получает бронирования поставщика с гибкой фильтрацией
// Поддерживает фильтрацию по:
// - Окну пересечения занятых интервалов (OverlapFrom, OverlapTo) - опционально
// - Статусу (Status) - опционально
// - Включению терминальных бронирований (IncludeInactive)
//
// Пересечение считается по занятому интервалу
// [start_at, start_at + duration + buffer): бронирование попадает в выборку,
// если его занятый интервал пересекает [OverlapFrom, OverlapTo).
//
// Если вызов идёт внутри транзакции и задано окно пересечения, строки
// блокируются FOR UPDATE - это путь проверки занятости при создании бронирования.
func (r *Repository) GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"provider_id": filter.ProviderID})

	hasWindow := filter.OverlapFrom != nil && filter.OverlapTo != nil
	if hasWindow {
		selectBuilder = selectBuilder.Where(squirrel.Expr(
			"start_at < ? AND start_at + make_interval(mins => duration_minutes + buffer_minutes) > ?",
			*filter.OverlapTo, *filter.OverlapFrom,
		))
	}

	if filter.ExcludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *filter.ExcludeID})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		activeStatusStrings := make([]string, len(domain.ActiveStatuses))
		for i, s := range domain.ActiveStatuses {
			activeStatusStrings[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": activeStatusStrings})
	}

	selectBuilder = selectBuilder.OrderBy("start_at ASC")

	if dbmetrics.IsInTransaction(ctx) && hasWindow {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus обновляет статус бронирования через compare-and-swap:
// строка меняется только если текущий статус равен from. Ноль затронутых строк
// означает, что конкурирующий переход выиграл (ErrStatusConflict) либо
// бронирование не существует - вызывающий различает это повторным чтением.
//
// Вместе со статусом проставляется соответствующий timestamp
// (confirmed_at / cancelled_at / completed_at) и данные отмены.
func (r *Repository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to domain.BookingStatus,
	at time.Time,
	reason *string,
	cancelledBy *domain.CancelledBy,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": from})

	switch to {
	case domain.StatusConfirmed:
		updateBuilder = updateBuilder.Set("confirmed_at", at)
	case domain.StatusCancelled:
		updateBuilder = updateBuilder.
			Set("cancelled_at", at).
			Set("cancellation_reason", reason).
			Set("cancelled_by", cancelledBy)
	case domain.StatusCompleted:
		updateBuilder = updateBuilder.Set("completed_at", at)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// UpdateStartAt переносит бронирование на новое время через compare-and-swap
// по статусу: строка меняется только если текущий статус равен from.
//
// Занятый интервал пересчитывается базой из start_at, поэтому exclusion
// constraint защищает перенос так же, как и создание: пересечение с другим
// активным бронированием транслируется в ErrSlotTaken.
func (r *Repository) UpdateStartAt(
	ctx context.Context,
	id int64,
	from domain.BookingStatus,
	startAt time.Time,
	at time.Time,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("start_at", startAt).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStartAt - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codeExclusionViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("%w: UpdateStartAt - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStartAt - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime
	var confirmedAt, cancelledAt, completedAt sql.NullTime
	var cancelledBy sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.Number,
		&booking.ProviderID,
		&booking.ClientID,
		&booking.ServiceID,
		&booking.ServiceName,
		&booking.DurationMinutes,
		&booking.BufferMinutes,
		&booking.StartAt,
		&booking.Status,
		&booking.Notes,
		&booking.CancellationReason,
		&cancelledBy,
		&confirmedAt,
		&cancelledAt,
		&completedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.StartAt = booking.StartAt.UTC()
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time
	if confirmedAt.Valid {
		t := confirmedAt.Time
		booking.ConfirmedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		booking.CancelledAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		booking.CompletedAt = &t
	}
	if cancelledBy.Valid {
		by := domain.CancelledBy(cancelledBy.String)
		booking.CancelledBy = &by
	}

	return &booking, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
