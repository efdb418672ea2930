package get_provider_config

import (
	"context"

	"github.com/m04kA/SPA-BookingService/internal/service/schedule/models"
)

type ScheduleService interface {
	GetConfigs(ctx context.Context, providerID int64) (*models.ConfigListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
