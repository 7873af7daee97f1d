// File: bookwise/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bookwise/config"
	"bookwise/cron"
	"bookwise/database"
	calendarRepo "bookwise/database/repository/calendar"
	recordsRepo "bookwise/database/repository/records"
	"bookwise/handlers"
	"bookwise/middleware"
	"bookwise/routes"
	"bookwise/services/availability"
	"bookwise/services/composer"
	"bookwise/services/dialogue"
	"bookwise/services/nlu"
	"bookwise/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSMiddleware())

	// Repositories.
	calendarSvc := calendarRepo.NewMongoCalendarRepo()
	bookingRepo := recordsRepo.NewMongoBookingRepo()

	// Dialogue engine collaborators.
	loc := config.Location()
	extractor := nlu.NewExtractor(loc)
	classifier := nlu.NewClassifier(config.AppConfig.ConfidenceThreshold)
	resolver := availability.NewResolver(
		config.AppConfig.BusinessStartHour,
		config.AppConfig.BusinessEndHour,
		config.AppConfig.ScanWindowDays,
		config.AppConfig.MaxProposals,
		loc,
	)
	comp := composer.NewComposer(loc)
	sessionStore := dialogue.NewRedisSessionStore(utils.GetSessionCacheClient())

	dialogueSvc := dialogue.NewDialogueService(
		sessionStore,
		calendarSvc,
		bookingRepo,
		extractor,
		classifier,
		resolver,
		comp,
		dialogue.Options{
			CalendarID:          config.AppConfig.CalendarID,
			ConfidenceThreshold: config.AppConfig.ConfidenceThreshold,
			SessionTimeout:      config.SessionTimeout(),
			CalendarTimeout:     config.CalendarTimeout(),
			MaxHistory:          config.AppConfig.SessionMaxHistory,
			DefaultDurationMin:  config.AppConfig.DefaultDurationMin,
			Loc:                 loc,
		},
	)

	dialogueHandler := handlers.NewDialogueHandler(dialogueSvc, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ChatHandler:         dialogueHandler.Chat,
		StartSessionHandler: dialogueHandler.StartSession,
		GetSessionHandler:   dialogueHandler.GetSession,
		AvailabilityHandler: dialogueHandler.Availability,
		IssueTokenHandler:   handlers.IssueToken,
	}

	routes.RegisterDialogueRoutes(router, handlerBundle)
	routes.RegisterHealthRoute(router)

	// Background workers.
	cron.InitSessionSweeper(dialogueSvc)
	utils.StartHealthMonitor(utils.GetSessionCacheClient(), database.MongoClient)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("forced shutdown: %v", err)
	}
	logger.Info("server stopped")
}
