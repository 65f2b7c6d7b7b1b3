package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/config"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/database"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/handler"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/middleware"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/router"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	profileRepo := repository.NewProfileRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roadmapRepo := repository.NewRoadmapRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	progressService := service.NewProgressService(subjectRepo, sessionRepo, roadmapRepo, feedbackRepo, redisClient, cfg.DashboardCacheTTL, logger)
	subjectService := service.NewSubjectService(subjectRepo, goalRepo, feedbackRepo, sessionRepo, logger)
	roadmapService := service.NewRoadmapService(subjectRepo, goalRepo, feedbackRepo, sessionRepo, roadmapRepo, generator, logger)
	parentService := service.NewParentService(profileRepo, roadmapRepo, alertRepo, progressService, logger)

	subjectHandler := handler.NewSubjectHandler(subjectService, validate, logger)
	roadmapHandler := handler.NewRoadmapHandler(roadmapService, logger)
	dashboardHandler := handler.NewDashboardHandler(progressService, logger)
	parentHandler := handler.NewParentHandler(parentService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubjectHandler:   subjectHandler,
		RoadmapHandler:   roadmapHandler,
		DashboardHandler: dashboardHandler,
		ParentHandler:    parentHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
