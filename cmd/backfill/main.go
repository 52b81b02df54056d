package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/plantgram/internal/circuitbreaker"
	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/repository"
	"github.com/timmy/plantgram/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "plantgram-backfill",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	limit := flag.Int("limit", 0, "Maximum number of posts to comment on (0 uses backfill.limit)")
	workers := flag.Int("workers", 0, "Number of concurrent workers (0 uses backfill.workers)")
	dryRun := flag.Bool("dry-run", false, "Generate comments without publishing them")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *limit <= 0 {
		*limit = cfg.Backfill.Limit
	}

	appLogger.WithFields(logger.Fields{
		"limit":   *limit,
		"workers": *workers,
		"dry_run": *dryRun,
	}).Info("Starting backfill")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolved, err := cfg.LLM.Resolve()
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid LLM configuration")
	}
	backends, err := service.NewTextGenerators(ctx, resolved, &cfg.LLM)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize LLM backends")
	}

	generator := service.NewCommentGenerator(
		backends,
		circuitbreaker.New(cfg.LLM.BreakerThreshold, cfg.LLM.BreakerCooldown),
		service.NewTemplateGenerator(service.NewRandSource(cfg.Fairy.Seed), cfg.Fairy.ObservationRate),
		service.NewGeneratorConfig(&cfg.LLM, resolved.Mode),
		appLogger,
	)

	registry := service.NewPersonaRegistry(repository.NewProfileRepository(db), cfg.Persona, appLogger)
	// The API process owns the websocket hub; cached lists here expire on their own
	workflow := service.NewFairyWorkflow(
		postRepo,
		service.NewDuplicateGuard(commentRepo, cfg.Persona.ID, appLogger),
		generator,
		registry,
		service.NewCommentPublisher(commentRepo, cfg.Persona.ID, nil),
		cfg.Fairy.WorkflowTimeout,
		appLogger,
	)

	backfillService := service.NewBackfillService(
		postRepo,
		repository.NewBackfillRunRepository(db),
		workflow,
		registry,
		appLogger,
		&service.BackfillConfig{Workers: cfg.Backfill.Workers},
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	stats, err := backfillService.Run(ctx, &service.BackfillOptions{
		Limit:   *limit,
		Workers: *workers,
		DryRun:  *dryRun,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Backfill failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":       stats.Total,
		"published":   stats.Published,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"previewed":   stats.Previewed,
		"duration_ms": stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info("Backfill completed")
}
