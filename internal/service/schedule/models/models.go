package models

import (
	"fmt"
	"time"

	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// Request модели

// ReplaceScheduleRequest запрос на полную замену расписания провайдера
type ReplaceScheduleRequest struct {
	ProviderID int64         `json:"-"`
	Week       WeekHours     `json:"week"`
	Overrides  []OverrideDTO `json:"overrides,omitempty"`
}

// UpdateConfigRequest запрос на создание или обновление конфигурации бронирований
type UpdateConfigRequest struct {
	ProviderID         int64  `json:"-"`
	ServiceID          *int64 `json:"serviceId,omitempty"`
	GranularityMinutes int    `json:"granularityMinutes"`
	MinLeadTimeMinutes int    `json:"minLeadTimeMinutes"`
	AdvanceBookingDays int    `json:"advanceBookingDays"`
}

// WeekHours недельный шаблон рабочих часов
// Отсутствующий день означает выходной
type WeekHours struct {
	Monday    *DayHoursDTO `json:"monday,omitempty"`
	Tuesday   *DayHoursDTO `json:"tuesday,omitempty"`
	Wednesday *DayHoursDTO `json:"wednesday,omitempty"`
	Thursday  *DayHoursDTO `json:"thursday,omitempty"`
	Friday    *DayHoursDTO `json:"friday,omitempty"`
	Saturday  *DayHoursDTO `json:"saturday,omitempty"`
	Sunday    *DayHoursDTO `json:"sunday,omitempty"`
}

// DayHoursDTO рабочие часы одного дня
type DayHoursDTO struct {
	Open   string     `json:"open"`  // "09:00"
	Close  string     `json:"close"` // "18:00"
	Breaks []BreakDTO `json:"breaks,omitempty"`
}

// BreakDTO перерыв внутри рабочего дня
type BreakDTO struct {
	Start string `json:"start"` // "12:00"
	End   string `json:"end"`   // "13:00"
}

// OverrideDTO переопределение рабочих часов на конкретную дату
type OverrideDTO struct {
	Date   string       `json:"date"` // "2026-09-15"
	Closed bool         `json:"closed,omitempty"`
	Hours  *DayHoursDTO `json:"hours,omitempty"`
}

// Response модели

// ScheduleResponse ответ с расписанием провайдера
type ScheduleResponse struct {
	ProviderID int64         `json:"providerId"`
	Week       WeekHours     `json:"week"`
	Overrides  []OverrideDTO `json:"overrides"`
}

// ConfigResponse ответ с конфигурацией бронирований
type ConfigResponse struct {
	ID                 int64     `json:"id"`
	ProviderID         int64     `json:"providerId"`
	ServiceID          *int64    `json:"serviceId,omitempty"`
	Scope              string    `json:"scope"` // "provider" или "service"
	GranularityMinutes int       `json:"granularityMinutes"`
	MinLeadTimeMinutes int       `json:"minLeadTimeMinutes"`
	AdvanceBookingDays int       `json:"advanceBookingDays"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ConfigListResponse ответ со списком конфигураций
type ConfigListResponse struct {
	Configs []ConfigResponse `json:"configs"`
}

// Методы конвертации

// ToDomainSchedule конвертирует request в доменную модель
func (r *ReplaceScheduleRequest) ToDomainSchedule() (*domain.Schedule, error) {
	schedule := &domain.Schedule{
		ProviderID: r.ProviderID,
		Week:       make(map[time.Weekday]*domain.DayHours),
		Overrides:  make(map[string]*domain.ScheduleOverride),
	}

	weekdays := map[time.Weekday]*DayHoursDTO{
		time.Monday:    r.Week.Monday,
		time.Tuesday:   r.Week.Tuesday,
		time.Wednesday: r.Week.Wednesday,
		time.Thursday:  r.Week.Thursday,
		time.Friday:    r.Week.Friday,
		time.Saturday:  r.Week.Saturday,
		time.Sunday:    r.Week.Sunday,
	}
	for weekday, dto := range weekdays {
		if dto == nil {
			continue
		}
		hours, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		schedule.Week[weekday] = hours
	}

	for _, dto := range r.Overrides {
		date, err := time.ParseInLocation(domain.DateFormat, dto.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid override date %q: %v", dto.Date, err)
		}

		override := &domain.ScheduleOverride{
			Date:   date,
			Closed: dto.Closed,
		}
		if dto.Hours != nil {
			hours, err := dto.Hours.toDomain()
			if err != nil {
				return nil, err
			}
			override.Hours = hours
		}
		schedule.Overrides[dto.Date] = override
	}

	return schedule, nil
}

func (d *DayHoursDTO) toDomain() (*domain.DayHours, error) {
	open, err := types.NewTimeStringFromString(d.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open time %q: %v", d.Open, err)
	}
	closeTime, err := types.NewTimeStringFromString(d.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close time %q: %v", d.Close, err)
	}

	hours := &domain.DayHours{Open: open, Close: closeTime}
	for _, br := range d.Breaks {
		start, err := types.NewTimeStringFromString(br.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid break start %q: %v", br.Start, err)
		}
		end, err := types.NewTimeStringFromString(br.End)
		if err != nil {
			return nil, fmt.Errorf("invalid break end %q: %v", br.End, err)
		}
		hours.Breaks = append(hours.Breaks, domain.BreakWindow{Start: start, End: end})
	}

	return hours, nil
}

// FromDomainSchedule конвертирует доменную модель в DTO
func FromDomainSchedule(s *domain.Schedule) *ScheduleResponse {
	resp := &ScheduleResponse{
		ProviderID: s.ProviderID,
		Overrides:  make([]OverrideDTO, 0, len(s.Overrides)),
	}

	resp.Week.Monday = fromDomainDay(s.Week[time.Monday])
	resp.Week.Tuesday = fromDomainDay(s.Week[time.Tuesday])
	resp.Week.Wednesday = fromDomainDay(s.Week[time.Wednesday])
	resp.Week.Thursday = fromDomainDay(s.Week[time.Thursday])
	resp.Week.Friday = fromDomainDay(s.Week[time.Friday])
	resp.Week.Saturday = fromDomainDay(s.Week[time.Saturday])
	resp.Week.Sunday = fromDomainDay(s.Week[time.Sunday])

	for date, override := range s.Overrides {
		dto := OverrideDTO{
			Date:   date,
			Closed: override.Closed,
			Hours:  fromDomainDay(override.Hours),
		}
		resp.Overrides = append(resp.Overrides, dto)
	}

	return resp
}

func fromDomainDay(hours *domain.DayHours) *DayHoursDTO {
	if hours == nil {
		return nil
	}

	dto := &DayHoursDTO{
		Open:  hours.Open.String(),
		Close: hours.Close.String(),
	}
	for _, br := range hours.Breaks {
		dto.Breaks = append(dto.Breaks, BreakDTO{Start: br.Start.String(), End: br.End.String()})
	}

	return dto
}

// ToDomainConfig конвертирует request в доменную модель
func (r *UpdateConfigRequest) ToDomainConfig() *domain.ProviderBookingConfig {
	return &domain.ProviderBookingConfig{
		ProviderID:         r.ProviderID,
		ServiceID:          r.ServiceID,
		GranularityMinutes: r.GranularityMinutes,
		MinLeadTimeMinutes: r.MinLeadTimeMinutes,
		AdvanceBookingDays: r.AdvanceBookingDays,
	}
}

// FromDomainConfig конвертирует доменную модель в DTO
func FromDomainConfig(c *domain.ProviderBookingConfig) *ConfigResponse {
	scope := "service"
	if c.IsProviderWide() {
		scope = "provider"
	}

	return &ConfigResponse{
		ID:                 c.ID,
		ProviderID:         c.ProviderID,
		ServiceID:          c.ServiceID,
		Scope:              scope,
		GranularityMinutes: c.GranularityMinutes,
		MinLeadTimeMinutes: c.MinLeadTimeMinutes,
		AdvanceBookingDays: c.AdvanceBookingDays,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// FromDomainConfigList конвертирует список доменных моделей в DTO
func FromDomainConfigList(configs []*domain.ProviderBookingConfig) *ConfigListResponse {
	result := &ConfigListResponse{
		Configs: make([]ConfigResponse, 0, len(configs)),
	}
	for _, c := range configs {
		result.Configs = append(result.Configs, *FromDomainConfig(c))
	}
	return result
}
