package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/complete_booking"
	confirmBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_booking"
	getProviderBookingsHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_provider_bookings"
	getProviderConfigHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_provider_config"
	getScheduleHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_schedule"
	getUserBookingsHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/get_user_bookings"
	noShowBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/no_show_booking"
	rescheduleBookingHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/reschedule_booking"
	updateProviderConfigHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/update_provider_config"
	updateScheduleHandler "github.com/m04kA/SPA-BookingService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SPA-BookingService/internal/api/middleware"
	"github.com/m04kA/SPA-BookingService/internal/config"
	"github.com/m04kA/SPA-BookingService/internal/domain"
	"github.com/m04kA/SPA-BookingService/internal/infra/cache"
	"github.com/m04kA/SPA-BookingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/config"
	scheduleRepo "github.com/m04kA/SPA-BookingService/internal/infra/storage/schedule"
	catalogServiceClient "github.com/m04kA/SPA-BookingService/internal/integrations/catalogservice"
	bookingsService "github.com/m04kA/SPA-BookingService/internal/service/bookings"
	scheduleService "github.com/m04kA/SPA-BookingService/internal/service/schedule"
	createBookingUC "github.com/m04kA/SPA-BookingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SPA-BookingService/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SPA-BookingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SPA-BookingService/pkg/logger"
	"github.com/m04kA/SPA-BookingService/pkg/metrics"
	"github.com/m04kA/SPA-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/SPA-BookingService/pkg/txmanager"
)

// EventPublisher общий интерфейс rabbit и лог публикаторов
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SPA-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем клиента каталога провайдеров и услуг
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	log.Info("Catalog client initialized (url=%s timeout=%ds)", cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Инициализируем публикатор событий жизненного цикла
	var publisher EventPublisher
	if cfg.RabbitMQ.Enabled {
		rabbitPublisher, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
		log.Info("RabbitMQ publisher initialized (exchange=%s)", cfg.RabbitMQ.Exchange)
	} else {
		publisher = events.NewLogPublisher(log)
		log.Info("RabbitMQ disabled, lifecycle events are logged only")
	}

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		configRepository   *configRepo.Repository
		scheduleRepository *scheduleRepo.Repository
	)

	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		configRepository = configRepo.NewRepository(wrappedDB)
		scheduleRepository = scheduleRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		configRepository = configRepo.NewRepository(db)
		scheduleRepository = scheduleRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Кеш расписаний поверх репозитория
	scheduleCache, err := cache.NewCachedScheduleReader(scheduleRepository, cfg.Cache.ScheduleSize, log)
	if err != nil {
		log.Fatal("Failed to initialize schedule cache: %v", err)
	}
	log.Info("Schedule cache initialized (size=%d)", cfg.Cache.ScheduleSize)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		publisher,
		log,
	)
	scheduleSvc := scheduleService.NewService(
		scheduleRepository,
		configRepository,
		scheduleCache,
		txMgr,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		configRepository,
		scheduleRepository,
		catalogClient,
		publisher,
		txMgr,
		log,
	)

	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		bookingRepository,
		configRepository,
		scheduleRepository,
		publisher,
		txMgr,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		configRepository,
		scheduleCache,
		catalogClient,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	noShowBooking := noShowBookingHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)
	getProviderConfig := getProviderConfigHandler.NewHandler(scheduleSvc, log)
	updateProviderConfig := updateProviderConfigHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступные слоты для бронирования
	api.HandleFunc("/providers/{providerId}/services/{serviceId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Расписание провайдера
	api.HandleFunc("/providers/{providerId}/schedule", getSchedule.Handle).Methods(http.MethodGet)

	// Конфигурация бронирований провайдера
	api.HandleFunc("/providers/{providerId}/config", getProviderConfig.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", noShowBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)

	// --- История бронирований ---
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)

	// --- Управление расписанием и конфигурацией ---
	protected.HandleFunc("/providers/{providerId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/providers/{providerId}/config", updateProviderConfig.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
