package catalogservice

// Provider модель поставщика услуг из каталога
type Provider struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	IsActive bool   `json:"is_active"`
}

// Service модель услуги из каталога
// DurationMinutes и BufferMinutes снапшотятся в бронирование при создании
type Service struct {
	ID              int64    `json:"id"`
	ProviderID      int64    `json:"provider_id"`
	Name            string   `json:"name"`
	DurationMinutes int      `json:"duration_minutes"`
	BufferMinutes   int      `json:"buffer_minutes"`
	Price           *float64 `json:"price,omitempty"`
	IsActive        bool     `json:"is_active"`
}

// ErrorResponse модель ошибки от каталога
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
