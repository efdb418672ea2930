package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SPA-BookingService/pkg/psqlbuilder"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий для работы с расписаниями поставщиков
// Недельный шаблон хранится в working_hours (строка на день недели),
// переопределения по датам - в schedule_overrides
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetSchedule загружает расписание поставщика: недельный шаблон целиком
// и переопределения в диапазоне дат [from, to] включительно.
// Отсутствие строк - не ошибка: пустое расписание означает "не работает"
func (r *Repository) GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	schedule := &domain.Schedule{
		ProviderID: providerID,
		Week:       make(map[time.Weekday]*domain.DayHours),
		Overrides:  make(map[string]*domain.ScheduleOverride),
	}

	if err := r.loadWeek(ctx, executor, schedule); err != nil {
		return nil, err
	}
	if err := r.loadOverrides(ctx, executor, schedule, from, to); err != nil {
		return nil, err
	}

	return schedule, nil
}

// ReplaceSchedule атомарно заменяет расписание поставщика:
// удаляет старые строки шаблона и переопределений и вставляет новые.
// Должен вызываться внутри транзакции (исполнитель берётся из контекста)
func (r *Repository) ReplaceSchedule(ctx context.Context, schedule *domain.Schedule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	for _, table := range []string{"working_hours", "schedule_overrides"} {
		query, args, err := psqlbuilder.Delete(table).
			Where(squirrel.Eq{"provider_id": schedule.ProviderID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: ReplaceSchedule - build delete query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: ReplaceSchedule - execute delete: %v", ErrExecQuery, err)
		}
	}

	if err := r.insertWeek(ctx, executor, schedule); err != nil {
		return err
	}
	return r.insertOverrides(ctx, executor, schedule)
}

func (r *Repository) loadWeek(ctx context.Context, executor DBExecutor, schedule *domain.Schedule) error {
	query, args, err := psqlbuilder.Select("weekday", "open_time", "close_time", "breaks").
		From("working_hours").
		Where(squirrel.Eq{"provider_id": schedule.ProviderID}).
		OrderBy("weekday ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadWeek - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadWeek - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var weekday int
		var open, close types.TimeString
		var breaksRaw []byte

		if err := rows.Scan(&weekday, &open, &close, &breaksRaw); err != nil {
			return fmt.Errorf("%w: loadWeek - scan row: %v", ErrScanRow, err)
		}

		breaks, err := decodeBreaks(breaksRaw)
		if err != nil {
			return err
		}

		schedule.Week[time.Weekday(weekday)] = &domain.DayHours{
			Open:   open,
			Close:  close,
			Breaks: breaks,
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadWeek - rows error: %v", ErrScanRow, err)
	}
	return nil
}

func (r *Repository) loadOverrides(ctx context.Context, executor DBExecutor, schedule *domain.Schedule, from, to time.Time) error {
	query, args, err := psqlbuilder.Select("date", "closed", "open_time", "close_time", "breaks").
		From("schedule_overrides").
		Where(squirrel.Eq{"provider_id": schedule.ProviderID}).
		Where(squirrel.GtOrEq{"date": from.UTC().Format(domain.DateFormat)}).
		Where(squirrel.LtOrEq{"date": to.UTC().Format(domain.DateFormat)}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var date time.Time
		var closed bool
		var open, close types.TimeString
		var breaksRaw []byte

		if err := rows.Scan(&date, &closed, &open, &close, &breaksRaw); err != nil {
			return fmt.Errorf("%w: loadOverrides - scan row: %v", ErrScanRow, err)
		}

		override := &domain.ScheduleOverride{
			Date:   time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Closed: closed,
		}

		if !closed {
			breaks, err := decodeBreaks(breaksRaw)
			if err != nil {
				return err
			}
			override.Hours = &domain.DayHours{
				Open:   open,
				Close:  close,
				Breaks: breaks,
			}
		}

		schedule.Overrides[override.Date.Format(domain.DateFormat)] = override
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadOverrides - rows error: %v", ErrScanRow, err)
	}
	return nil
}

func (r *Repository) insertWeek(ctx context.Context, executor DBExecutor, schedule *domain.Schedule) error {
	if len(schedule.Week) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("working_hours").
		Columns("provider_id", "weekday", "open_time", "close_time", "breaks")

	// Стабильный порядок вставки по дню недели
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day, ok := schedule.Week[wd]
		if !ok {
			continue
		}
		breaksRaw, err := encodeBreaks(day.Breaks)
		if err != nil {
			return err
		}
		insertBuilder = insertBuilder.Values(schedule.ProviderID, int(wd), day.Open, day.Close, breaksRaw)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertWeek - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertWeek - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

func (r *Repository) insertOverrides(ctx context.Context, executor DBExecutor, schedule *domain.Schedule) error {
	if len(schedule.Overrides) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("schedule_overrides").
		Columns("provider_id", "date", "closed", "open_time", "close_time", "breaks")

	for _, override := range schedule.Overrides {
		var open, close interface{}
		var breaksRaw []byte
		if override.Hours != nil {
			open = override.Hours.Open
			close = override.Hours.Close
			raw, err := encodeBreaks(override.Hours.Breaks)
			if err != nil {
				return err
			}
			breaksRaw = raw
		} else {
			raw, err := encodeBreaks(nil)
			if err != nil {
				return err
			}
			breaksRaw = raw
		}

		insertBuilder = insertBuilder.Values(
			schedule.ProviderID,
			override.Date.Format(domain.DateFormat),
			override.Closed,
			open,
			close,
			breaksRaw,
		)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertOverrides - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertOverrides - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

func encodeBreaks(breaks []domain.BreakWindow) ([]byte, error) {
	if breaks == nil {
		breaks = []domain.BreakWindow{}
	}
	raw, err := json.Marshal(breaks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeBreaks, err)
	}
	return raw, nil
}

func decodeBreaks(raw []byte) ([]domain.BreakWindow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var breaks []domain.BreakWindow
	if err := json.Unmarshal(raw, &breaks); err != nil {
		return nil, fmt.Errorf("%w: decodeBreaks: %v", ErrScanRow, err)
	}
	if len(breaks) == 0 {
		return nil, nil
	}
	return breaks, nil
}
