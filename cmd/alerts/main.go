package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/config"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/database"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/pkg/mail"
)

// The alerts binary is the periodic batch job: generate all alerts, then
// dispatch digest emails. Run it from cron or a scheduler.
func main() {
	dryRun := flag.Bool("dry-run", false, "evaluate rules and log digests without sending email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("job", "alerts").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if !*dryRun {
		sendgridMailer, err := mail.NewSendgridMailer(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromEmail, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		mailer = sendgridMailer
	}

	profileRepo := repository.NewProfileRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roadmapRepo := repository.NewRoadmapRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	progressService := service.NewProgressService(subjectRepo, sessionRepo, roadmapRepo, feedbackRepo, nil, 0, logger)
	alertService := service.NewAlertService(profileRepo, sessionRepo, goalRepo, roadmapRepo, feedbackRepo, alertRepo, progressService, logger)
	dispatchService := service.NewDispatchService(profileRepo, alertRepo, mailer, cfg.SiteURL, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	created, err := alertService.RunAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("one or more evaluators failed")
	}
	logger.Info().Int("alerts_created", created).Msg("rule engine pass complete")

	sent, err := dispatchService.DispatchAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("dispatch pass failed")
		os.Exit(1)
	}
	logger.Info().Int("emails_sent", sent).Bool("dry_run", *dryRun).Msg("dispatch pass complete")
}
