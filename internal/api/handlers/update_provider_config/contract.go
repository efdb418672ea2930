package update_provider_config

import (
	"context"

	"github.com/m04kA/SPA-BookingService/internal/service/schedule/models"
)

type ScheduleService interface {
	UpdateConfig(ctx context.Context, req *models.UpdateConfigRequest) (*models.ConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
