package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bettermind/config"
	"bettermind/cron"
	"bettermind/database"
	doctorRepo "bettermind/database/repository/doctor"
	reservationRepo "bettermind/database/repository/reservation"
	"bettermind/handlers"
	"bettermind/middleware"
	"bettermind/routes"
	"bettermind/services/availability"
	"bettermind/services/booking"
	"bettermind/services/calendar"
	"bettermind/services/tasks"
	"bettermind/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitCache()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	utils.StartHealthMonitor(ctx, utils.GetCacheClient(), database.MongoClient)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.RequestLogger())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// repositories.
	db := database.DB()
	doctors := doctorRepo.NewMongoDoctorRepo(db)
	reservations := reservationRepo.NewMongoReservationRepo(db)
	if err := doctors.EnsureIndexes(ctx); err != nil {
		logger.Error("main: failed to create doctor indexes", zap.Error(err))
	}
	if err := reservations.EnsureIndexes(ctx); err != nil {
		// Without the partial unique index double-booking is only checked, not enforced.
		logger.Fatal("main: failed to create appointment indexes", zap.Error(err))
	}

	// calendar integration.
	oauthCfg := calendar.NewGoogleOAuthConfig(
		config.AppConfig.GoogleClientID,
		config.AppConfig.GoogleClientSecret,
		config.AppConfig.GoogleRedirectURL,
	)
	tokens := calendar.NewTokenManager(doctors, &calendar.OAuthRefresher{
		Config:  oauthCfg,
		Timeout: config.AppConfig.CalendarTimeout,
	})
	googleCalendar := calendar.NewGoogleProvider(config.AppConfig.CalendarTimeout)

	// services.
	loc := config.Location()
	slotCache := availability.NewRedisCache(utils.GetCacheClient(), config.AppConfig.AvailabilityCacheTTL)
	resolver := availability.NewResolver(doctors, tokens, googleCalendar, slotCache, loc)
	resolver.WorkStart = config.AppConfig.WorkStartHour
	resolver.WorkEnd = config.AppConfig.WorkEndHour

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})
	defer asynqClient.Close()
	reminders := tasks.NewReminderScheduler(asynqClient, config.AppConfig.ReminderLeadTime)
	reminderWorker := cron.InitReminderWorker(reservations, logger)

	mirror := &booking.Mirror{Tokens: tokens, Calendar: googleCalendar, Logger: logger}
	coordinator := booking.NewCoordinator(reservations, doctors, resolver, mirror, reminders)

	bookingHandler := handlers.NewBookingHandler(coordinator, resolver, loc, logger)
	handlerBundle := &handlers.HandlerBundle{
		GetAvailableSlots: bookingHandler.GetAvailableSlots,
		CreateAppointment: bookingHandler.CreateAppointment,
		ListAppointments:  bookingHandler.ListAppointments,
		GetAppointment:    bookingHandler.GetAppointment,
		UpdateAppointment: bookingHandler.UpdateAppointment,
		CancelAppointment: bookingHandler.CancelAppointment,
		Health:            handlers.HealthHandler,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	reminderWorker.Shutdown()
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
