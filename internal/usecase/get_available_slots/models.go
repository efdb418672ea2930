package get_available_slots

import (
	"time"

	"github.com/m04kA/SPA-BookingService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	UserID     int64     // ID пользователя (для логирования, не влияет на результат)
	ProviderID int64     // ID провайдера
	ServiceID  int64     // ID услуги
	From       time.Time // Начало диапазона дат (включительно)
	To         time.Time // Конец диапазона дат (включительно)
	FirstOnly  bool      // Вернуть только первый доступный слот
}

// Response модель ответа со списком доступных слотов по дням
type Response struct {
	ProviderID int64             // ID провайдера
	ServiceID  int64             // ID услуги
	Days       []DayAvailability // Доступность по дням диапазона
}

// DayAvailability доступные слоты на один день
type DayAvailability struct {
	Date  time.Time // Дата (без времени)
	Slots []Slot    // Доступные слоты, отсортированы по времени начала
}

// Slot модель доступного временного слота
type Slot struct {
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	StartAt         time.Time        // Момент начала слота в UTC
	DurationMinutes int              // Длительность услуги в минутах
}
