package domain

// Default configuration values
const (
	DefaultGranularityMinutes = 30
	DefaultMinLeadTimeMinutes = 60 // 1 hour
	DefaultAdvanceBookingDays = 0  // 0 = unlimited
)

// Business validation constants
const (
	MinGranularityMinutes = 5
	MaxGranularityMinutes = 240

	MinServiceDurationMinutes = 5
	MaxServiceDurationMinutes = 480 // 8 hours

	MinBufferMinutes = 0
	MaxBufferMinutes = 120

	MinLeadTimeMinutes = 0
	MaxLeadTimeMinutes = 10080 // 1 week

	MinAdvanceBookingDays = 0
	MaxAdvanceBookingDays = 365 // 1 year

	MaxAvailabilityRangeDays = 31

	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses список статусов, при которых бронирование занимает интервал
// Терминальные бронирования освобождают интервал, но хранятся для истории
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}
