// File: frontdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontdesk/config"
	"frontdesk/cron"
	"frontdesk/database"
	bookingsRepo "frontdesk/database/repository/bookings"
	"frontdesk/handlers"
	"frontdesk/middleware"
	"frontdesk/routes"
	"frontdesk/services/calendar"
	"frontdesk/services/dialogue"
	ai "frontdesk/services/intelligence"
	"frontdesk/services/speech"
	"frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.InitReminderCache()

	location, err := time.LoadLocation(config.AppConfig.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid timezone %q: %v", config.AppConfig.Timezone, err)
	}

	ctx := context.Background()

	transcriber, err := speech.NewGoogleTranscriber(ctx,
		config.AppConfig.GoogleServiceAccountFile,
		config.AppConfig.STTLanguage,
		config.AppConfig.STTSampleRateHz,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize transcriber: %v", err)
	}
	defer transcriber.Close()

	synthesizer, err := speech.NewGoogleSynthesizer(ctx,
		config.AppConfig.GoogleServiceAccountFile,
		config.AppConfig.TTSVoice,
		config.AppConfig.TTSLanguage,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize synthesizer: %v", err)
	}
	defer synthesizer.Close()

	scheduler, err := calendar.NewGoogleCalendarService(ctx,
		config.AppConfig.GoogleServiceAccountFile,
		config.AppConfig.CalendarID,
		config.AppConfig.Timezone,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize calendar service: %v", err)
	}

	var resolver ai.Resolver
	if config.AppConfig.GeminiAPIKey != "" {
		resolver = ai.NewGeminiResolver(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	} else {
		logger.Warn("main: no Gemini API key configured, running rules-only")
	}

	// repositories.
	bookings := bookingsRepo.NewMongoBookingRepo()

	// services.
	machine := &dialogue.Machine{
		Resolver:  resolver,
		Scheduler: scheduler,
		Renderer: &dialogue.Renderer{
			KnownDomains: config.KnownDomains(),
			Location:     location,
		},
		Policy: dialogue.Policy{
			RetryLimit:          config.AppConfig.FieldRetryLimit,
			AppointmentDuration: time.Duration(config.AppConfig.AppointmentDurationMin) * time.Minute,
			Location:            location,
			ResolverTimeout:     time.Duration(config.AppConfig.ResolverTimeoutSec) * time.Second,
		},
	}

	sessionService := &dialogue.DefaultSessionService{
		Machine:      machine,
		Redis:        utils.GetSessionCacheClient(),
		Bookings:     bookings,
		TTL:          time.Duration(config.AppConfig.SessionTTLMin) * time.Minute,
		ReminderLead: time.Duration(config.AppConfig.ReminderLeadMin) * time.Minute,
	}

	turnHandlers := &handlers.TurnHandlers{
		Sessions:      sessionService,
		STT:           transcriber,
		TTS:           synthesizer,
		MinAudioBytes: config.AppConfig.MinAudioSizeBytes,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		VoiceTurnHandler:  turnHandlers.VoiceTurn,
		TextTurnHandler:   turnHandlers.TextTurn,
		EndSessionHandler: turnHandlers.EndSession,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(map[string]*redis.Client{
		"sessions":  utils.GetSessionCacheClient(),
		"reminders": utils.GetReminderCacheClient(),
	}, database.MongoClient)

	cron.InitReminderWorker(bookings)

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

	logger.Sugar().Info("main: server stopped gracefully")
}
