package get_available_slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

func slotTimes(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime.String())
	}
	return out
}

func TestGenerateDaySlots(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{
		Open:  "09:00",
		Close: "17:00",
		Breaks: []domain.BreakWindow{
			{Start: "12:00", End: "13:00"},
		},
	}

	// Услуга 60 минут, шаг сетки 30 минут
	slots, err := generateDaySlots(day, date, 30, 60)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"09:00", "09:30", "10:00", "10:30", "11:00",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00",
	}, slotTimes(slots))

	// Инстанты привязаны к дате
	assert.Equal(t, time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC), slots[0].StartAt)
	assert.Equal(t, 60, slots[0].DurationMinutes)
}

func TestGenerateDaySlots_ClosedDay(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	slots, err := generateDaySlots(nil, date, 30, 60)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateDaySlots_ServiceLongerThanDay(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{Open: "09:00", Close: "10:00"}

	slots, err := generateDaySlots(day, date, 30, 120)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateDaySlots_ExactFit(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{Open: "09:00", Close: "11:00"}

	// Последний слот заканчивается ровно в закрытие
	slots, err := generateDaySlots(day, date, 60, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, slotTimes(slots))
}

func TestGenerateDaySlots_BreakBoundaries(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{
		Open:  "09:00",
		Close: "15:00",
		Breaks: []domain.BreakWindow{
			{Start: "11:00", End: "12:00"},
		},
	}

	// Услуга может заканчиваться ровно в начале перерыва
	// и начинаться ровно в его конце
	slots, err := generateDaySlots(day, date, 60, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "12:00", "13:00", "14:00"}, slotTimes(slots))
}

func TestOverlapsBreak(t *testing.T) {
	breaks := []domain.BreakWindow{{Start: "12:00", End: "13:00"}}

	assert.False(t, overlapsBreak(types.TimeString("11:00"), types.TimeString("12:00"), breaks))
	assert.False(t, overlapsBreak(types.TimeString("13:00"), types.TimeString("14:00"), breaks))
	assert.True(t, overlapsBreak(types.TimeString("11:30"), types.TimeString("12:30"), breaks))
	assert.True(t, overlapsBreak(types.TimeString("12:15"), types.TimeString("12:45"), breaks))
	assert.True(t, overlapsBreak(types.TimeString("11:00"), types.TimeString("14:00"), breaks))
}

func TestFilterAvailable_ExistingBooking(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{Open: "09:00", Close: "17:00"}

	slots, err := generateDaySlots(day, date, 30, 60)
	require.NoError(t, err)

	// Бронирование 10:30 на 60 минут + 15 минут буфера: занято [10:30, 11:45)
	booking := &domain.Booking{
		StartAt:         time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC),
		DurationMinutes: 60,
		BufferMinutes:   15,
		Status:          domain.StatusConfirmed,
	}

	minStart := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	available := filterAvailable(slots, []*domain.Booking{booking}, 60, 15, minStart)

	times := slotTimes(available)
	// Кандидат занимает [start, start+75m): 09:30..11:30 конфликтуют
	assert.NotContains(t, times, "09:30")
	assert.NotContains(t, times, "10:00")
	assert.NotContains(t, times, "10:30")
	assert.NotContains(t, times, "11:00")
	assert.NotContains(t, times, "11:30")
	// Слот 09:00 освобождает интервал в 10:15, до начала бронирования
	assert.Contains(t, times, "09:00")
	assert.Contains(t, times, "12:00")
}

func TestFilterAvailable_TerminalBookingIgnored(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{Open: "09:00", Close: "12:00"}

	slots, err := generateDaySlots(day, date, 30, 60)
	require.NoError(t, err)

	cancelled := &domain.Booking{
		StartAt:         time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          domain.StatusCancelled,
	}

	minStart := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	available := filterAvailable(slots, []*domain.Booking{cancelled}, 60, 0, minStart)

	// Отмененное бронирование освобождает интервал
	assert.Equal(t, slotTimes(slots), slotTimes(available))
}

func TestFilterAvailable_LeadTimeCutoff(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	day := &domain.DayHours{Open: "09:00", Close: "12:00"}

	slots, err := generateDaySlots(day, date, 30, 60)
	require.NoError(t, err)

	// Сейчас 09:15, минимальное время до начала 60 минут
	minStart := time.Date(2026, 9, 14, 10, 15, 0, 0, time.UTC)
	available := filterAvailable(slots, nil, 60, 0, minStart)

	assert.Equal(t, []string{"10:30", "11:00"}, slotTimes(available))
}
