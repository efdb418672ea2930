package domain

import "time"

// ProviderBookingConfig represents the booking policy for a provider.
// Supports hierarchical configuration:
// 1. Service-specific (provider_id, service_id)
// 2. Provider-wide (provider_id, NULL)
type ProviderBookingConfig struct {
	ID                 int64
	ProviderID         int64
	ServiceID          *int64 // NULL = config for all services
	GranularityMinutes int    // шаг сетки слотов (не длительность услуги)
	MinLeadTimeMinutes int    // минимум от "сейчас" до начала слота
	AdvanceBookingDays int    // 0 = unlimited
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultBookingConfig возвращает конфигурацию с дефолтными значениями
func DefaultBookingConfig(providerID int64) *ProviderBookingConfig {
	return &ProviderBookingConfig{
		ProviderID:         providerID,
		GranularityMinutes: DefaultGranularityMinutes,
		MinLeadTimeMinutes: DefaultMinLeadTimeMinutes,
		AdvanceBookingDays: DefaultAdvanceBookingDays,
	}
}

// IsProviderWide returns true if this is a provider-wide configuration
func (c *ProviderBookingConfig) IsProviderWide() bool {
	return c.ServiceID == nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (c *ProviderBookingConfig) HasAdvanceBookingLimit() bool {
	return c.AdvanceBookingDays > 0
}
