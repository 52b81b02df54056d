package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/plantgram/internal/api"
	"github.com/timmy/plantgram/internal/api/handler"
	"github.com/timmy/plantgram/internal/cache"
	"github.com/timmy/plantgram/internal/circuitbreaker"
	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/metrics"
	"github.com/timmy/plantgram/internal/realtime"
	"github.com/timmy/plantgram/internal/repository"
	"github.com/timmy/plantgram/internal/service"
	"github.com/timmy/plantgram/internal/storage"
)

func main() {
	// Initialize logger from LOG_* environment variables
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	backfillRepo := repository.NewBackfillRunRepository(db)

	// Decide remote generation once; the mode never changes afterwards
	resolved, err := cfg.LLM.Resolve()
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid LLM configuration")
	}
	backends, err := service.NewTextGenerators(ctx, resolved, &cfg.LLM)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize LLM backends")
	}
	appLogger.WithFields(logger.Fields{
		"llm_mode":  resolved.Mode.String(),
		"providers": len(backends),
	}).Info("Response generation configured")

	breaker := circuitbreaker.New(cfg.LLM.BreakerThreshold, cfg.LLM.BreakerCooldown)
	breaker.OnTransition(func(key string, from, to circuitbreaker.State) {
		metrics.BreakerTransitionsTotal.WithLabelValues(key, from.String(), to.String()).Inc()
		appLogger.WithFields(logger.Fields{
			"provider": key,
			"from":     from.String(),
			"to":       to.String(),
		}).Warn("LLM circuit breaker state changed")
	})

	generator := service.NewCommentGenerator(
		backends,
		breaker,
		service.NewTemplateGenerator(service.NewRandSource(cfg.Fairy.Seed), cfg.Fairy.ObservationRate),
		service.NewGeneratorConfig(&cfg.LLM, resolved.Mode),
		appLogger,
	)

	// Comment list cache and websocket hub both react to new comments
	commentCache := cache.NewCommentListCache(cfg.Cache.CommentListSize, cfg.Cache.CommentListTTL)
	invalidators := service.Invalidators{commentCache}

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(appLogger, realtime.Options{
			MaxClients:      cfg.Realtime.MaxClients,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		})
		go hub.Run(ctx)
		invalidators = append(invalidators, hub)
	}

	// Fairy workflow
	registry := service.NewPersonaRegistry(profileRepo, cfg.Persona, appLogger)
	if err := registry.EnsurePersonaExists(ctx); err != nil {
		// Not fatal: every workflow run retries the bootstrap
		appLogger.WithError(err).Warn("Failed to bootstrap fairy persona")
	}

	workflow := service.NewFairyWorkflow(
		postRepo,
		service.NewDuplicateGuard(commentRepo, cfg.Persona.ID, appLogger),
		generator,
		registry,
		service.NewCommentPublisher(commentRepo, cfg.Persona.ID, invalidators),
		cfg.Fairy.WorkflowTimeout,
		appLogger,
	)
	scheduler := service.NewScheduler(workflow, cfg.Fairy.AutoDelay, appLogger)
	triggers := service.NewManualTriggers(workflow, workflow, 1000)

	// Initialize storage (supports R2, S3, S3-compatible); optional
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewStorage(ctx, &cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		objectStorage = s3Storage
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	} else {
		appLogger.Info("Object storage disabled, uploads will be rejected")
	}
	uploads := service.NewUploadService(objectStorage, cfg.Upload.MaxBytes, appLogger)

	onDelete := []func(postID string){
		triggers.Forget,
		commentCache.Invalidate,
	}
	if hub != nil {
		onDelete = append(onDelete, hub.PostDeleted)
	}

	services := &api.Services{
		Posts: service.NewPostService(postRepo, service.PostServiceOptions{
			AutoComment: cfg.Fairy.AutoEnabled,
			Scheduler:   scheduler,
			Images:      uploads,
			OnDelete:    onDelete,
		}, appLogger),
		Comments: service.NewCommentService(commentRepo, postRepo, commentCache, invalidators, cfg.Persona.ID, appLogger),
		Likes:    service.NewLikeService(likeRepo, postRepo),
		Uploads:  uploads,
		Persona:  registry,
		Triggers: triggers,
		Backfill: service.NewBackfillService(postRepo, backfillRepo, workflow, registry, appLogger, &service.BackfillConfig{
			Workers: cfg.Backfill.Workers,
		}),
		Hub: hub,
		Health: handler.HealthInfo{
			LLMMode:        resolved.Mode.String(),
			StorageEnabled: objectStorage != nil,
			Pending:        scheduler.PendingCount,
		},
	}

	// Setup router
	router := api.SetupRouter(services, &cfg.Server, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	// Pending automatic comments are dropped; in-flight runs get the same deadline
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Scheduler did not drain in time")
	}
	cancel()

	appLogger.Info("Server exited")
}
