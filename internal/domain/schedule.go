package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// ErrInvalidSchedule возвращается при некорректном расписании
// (start >= end, пересекающиеся или выходящие за рабочий интервал перерывы)
var ErrInvalidSchedule = errors.New("domain: invalid schedule")

// BreakWindow перерыв внутри рабочего дня, [Start, End)
type BreakWindow struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
}

// DayHours рабочий интервал одного дня с перерывами
type DayHours struct {
	Open   types.TimeString
	Close  types.TimeString
	Breaks []BreakWindow
}

// Validate проверяет инварианты рабочего дня:
// open < close; перерывы валидны, упорядочены, не пересекаются
// и целиком лежат внутри [open, close)
func (d *DayHours) Validate() error {
	if err := d.Open.Validate(); err != nil {
		return fmt.Errorf("%w: open time: %v", ErrInvalidSchedule, err)
	}
	if err := d.Close.Validate(); err != nil {
		return fmt.Errorf("%w: close time: %v", ErrInvalidSchedule, err)
	}
	if !d.Open.IsBefore(d.Close) {
		return fmt.Errorf("%w: open %s must be before close %s", ErrInvalidSchedule, d.Open, d.Close)
	}

	prevEnd := d.Open
	for i, br := range d.Breaks {
		if err := br.Start.Validate(); err != nil {
			return fmt.Errorf("%w: break %d start: %v", ErrInvalidSchedule, i, err)
		}
		if err := br.End.Validate(); err != nil {
			return fmt.Errorf("%w: break %d end: %v", ErrInvalidSchedule, i, err)
		}
		if !br.Start.IsBefore(br.End) {
			return fmt.Errorf("%w: break %d start %s must be before end %s", ErrInvalidSchedule, i, br.Start, br.End)
		}
		if br.Start.IsBefore(prevEnd) {
			return fmt.Errorf("%w: break %d overlaps previous interval", ErrInvalidSchedule, i)
		}
		if br.End.IsAfter(d.Close) || !br.Start.IsBefore(d.Close) {
			return fmt.Errorf("%w: break %d is outside working hours", ErrInvalidSchedule, i)
		}
		prevEnd = br.End
	}

	return nil
}

// ScheduleOverride переопределение расписания на конкретную дату
// Либо день полностью закрыт, либо Hours заменяет недельный шаблон
type ScheduleOverride struct {
	Date   time.Time // дата (полночь UTC)
	Closed bool
	Hours  *DayHours // nil, если Closed
}

// Validate проверяет корректность переопределения
func (o *ScheduleOverride) Validate() error {
	if o.Date.IsZero() {
		return fmt.Errorf("%w: override date is required", ErrInvalidSchedule)
	}
	if o.Closed {
		if o.Hours != nil {
			return fmt.Errorf("%w: closed override must not define working hours", ErrInvalidSchedule)
		}
		return nil
	}
	if o.Hours == nil {
		return fmt.Errorf("%w: override must be closed or define working hours", ErrInvalidSchedule)
	}
	return o.Hours.Validate()
}

// Schedule расписание поставщика услуг: недельный шаблон + переопределения по датам
type Schedule struct {
	ProviderID int64
	Week       map[time.Weekday]*DayHours   // день недели без записи = не работает
	Overrides  map[string]*ScheduleOverride // ключ - дата YYYY-MM-DD
}

// Validate проверяет весь агрегат расписания
func (s *Schedule) Validate() error {
	for wd, day := range s.Week {
		if day == nil {
			return fmt.Errorf("%w: weekday %s has empty hours", ErrInvalidSchedule, wd)
		}
		if err := day.Validate(); err != nil {
			return fmt.Errorf("weekday %s: %w", wd, err)
		}
	}
	for key, ov := range s.Overrides {
		if ov == nil {
			return fmt.Errorf("%w: override %s is empty", ErrInvalidSchedule, key)
		}
		if err := ov.Validate(); err != nil {
			return fmt.Errorf("override %s: %w", key, err)
		}
	}
	return nil
}

// EffectiveDay возвращает действующий рабочий интервал на дату
// Переопределение имеет приоритет над недельным шаблоном
// nil означает, что поставщик в этот день не работает
func (s *Schedule) EffectiveDay(date time.Time) *DayHours {
	if ov, ok := s.Overrides[date.UTC().Format(DateFormat)]; ok && ov != nil {
		if ov.Closed {
			return nil
		}
		return ov.Hours
	}
	return s.Week[date.UTC().Weekday()]
}
