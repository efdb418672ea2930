package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// TimeString время суток в формате HH:MM ("09:30")
// Используется для рабочих часов и перерывов, где важна только минута в пределах дня
type TimeString string

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени
	ErrInvalidTimeString = errors.New("types: invalid time string format, expected HH:MM")

	// ErrTimeOutOfDay возвращается, когда арифметика выходит за пределы суток
	ErrTimeOutOfDay = errors.New("types: time is out of day bounds")
)

// NewTimeString создает TimeString из time.Time (берёт только часы и минуты)
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format("15:04"))
}

// NewTimeStringFromString парсит и валидирует строку HH:MM
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// NewTimeStringFromMinutes создает TimeString из минут с начала суток
func NewTimeStringFromMinutes(m int) (TimeString, error) {
	if m < 0 || m >= 24*60 {
		return "", fmt.Errorf("%w: %d minutes", ErrTimeOutOfDay, m)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", m/60, m%60)), nil
}

// Validate проверяет формат HH:MM
// time.Parse принимает однозначный час ("9:30"), поэтому сверяем длину
func (t TimeString) Validate() error {
	if len(t) != 5 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	if _, err := time.Parse("15:04", string(t)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return nil
}

// IsZero возвращает true для пустого значения
func (t TimeString) IsZero() bool {
	return t == ""
}

// Minutes возвращает количество минут с начала суток
// Для невалидного значения возвращает 0
func (t TimeString) Minutes() int {
	parsed, err := time.Parse("15:04", string(t))
	if err != nil {
		return 0
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// IsBefore возвращает true, если t строго раньше other
func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

// IsAfter возвращает true, если t строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

// AddMinutes возвращает время через minutes минут
// Ошибка, если результат выходит за пределы суток
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	return NewTimeStringFromMinutes(t.Minutes() + minutes)
}

// OnDate возвращает инстант: date (полночь UTC) + время суток t
func (t TimeString) OnDate(date time.Time) time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(t.Minutes()) * time.Minute)
}

// String возвращает строковое представление HH:MM
func (t TimeString) String() string {
	return string(t)
}

// Value реализует driver.Valuer для записи в БД
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return string(t), nil
}

// Scan реализует sql.Scanner для чтения из БД
// Поддерживает строки вида "HH:MM" и "HH:MM:SS" (тип TIME в Postgres)
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported source type %T", ErrInvalidTimeString, src)
	}
}

func (t *TimeString) scanString(s string) error {
	if len(s) > 5 {
		s = s[:5]
	}
	ts, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}
