// Package main implements the entry point for the Concord API server, which
// schedules spaced-repetition reviews and records graded attempts.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/concordsrs/concord-api/internal/config"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/platform/postgres"
	"github.com/concordsrs/concord-api/internal/service/auth"
	"github.com/concordsrs/concord-api/internal/service/review"
	"github.com/concordsrs/concord-api/internal/store"
)

// application bundles the long-lived dependencies the server wires at
// startup.
type application struct {
	config          *config.Config
	logger          *slog.Logger
	db              *sql.DB
	tokenValidator  auth.TokenValidator
	recorder        review.Recorder
	queueSelector   review.QueueSelector
	phrasingService review.PhrasingService
}

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		app.logger.Error("Server exited with error", "error", err)
	}
}

// initializeApp loads configuration, sets up logging, connects the database,
// runs migrations and wires the service layer.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	tokenValidator, err := auth.NewTokenValidator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	scheduler := fsrs.NewScheduler(fsrs.NewParams(fsrs.ParamsConfig{
		InitialStabilityGood:   cfg.Scheduler.InitialStabilityGood,
		InitialStabilityAgain:  cfg.Scheduler.InitialStabilityAgain,
		RelearnStepMinutes:     cfg.Scheduler.RelearnStepMinutes,
		DesiredRetention:       cfg.Scheduler.DesiredRetention,
		MaxIntervalDays:        cfg.Scheduler.MaxIntervalDays,
		GrowthRate:             cfg.Scheduler.GrowthRate,
		ForgetStabilityFactor:  cfg.Scheduler.ForgetStabilityFactor,
		LapseDifficultyPenalty: cfg.Scheduler.LapseDifficultyPenalty,
		RecallDifficultyBonus:  cfg.Scheduler.RecallDifficultyBonus,
	}))
	clock := review.NewRealClock()

	transactor := store.NewTransactor(db)
	conceptStore := postgres.NewPostgresConceptStore(db, appLogger)
	phrasingStore := postgres.NewPostgresPhrasingStore(db, appLogger)
	interactionStore := postgres.NewPostgresInteractionStore(db, appLogger)

	return &application{
		config:         cfg,
		logger:         appLogger,
		db:             db,
		tokenValidator: tokenValidator,
		recorder: review.NewRecorder(
			transactor, conceptStore, interactionStore, scheduler, clock, appLogger),
		queueSelector: review.NewQueueSelector(conceptStore, review.QueueConfig{
			ThinThreshold:     cfg.Review.ThinThreshold,
			ConflictThreshold: cfg.Review.ConflictThreshold,
			DefaultPageSize:   cfg.Review.DefaultPageSize,
			MaxPageSize:       cfg.Review.MaxPageSize,
		}, clock, appLogger),
		phrasingService: review.NewPhrasingService(transactor, conceptStore, phrasingStore, appLogger),
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
