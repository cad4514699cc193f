package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/echoscribe-team/echoscribe/pkg/validator"

	"github.com/echoscribe-team/echoscribe/internal/adapter/handler"
	"github.com/echoscribe-team/echoscribe/internal/adapter/repository"
	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/infrastructure/cache"
	"github.com/echoscribe-team/echoscribe/internal/infrastructure/database"
	"github.com/echoscribe-team/echoscribe/internal/infrastructure/storage"
	"github.com/echoscribe-team/echoscribe/internal/usecase/dictation"
	"github.com/echoscribe-team/echoscribe/internal/usecase/pipeline"
	pkgai "github.com/echoscribe-team/echoscribe/pkg/ai"
	"github.com/echoscribe-team/echoscribe/pkg/config"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Owner-ID"},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply schema migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying schema migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize the live transcript mirror. Redis keeps the transcript
	// visible across instances; without a Redis host the in-memory store
	// serves single-instance deployments.
	var mirror dictation.TranscriptMirror
	if cfg.Redis.Host != "" {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		mirror = cache.NewRedisMirror(redisClient, cfg.Pipeline.LiveMirrorTTL())
	} else {
		log.Println("⚠️  REDIS_HOST not set, using in-memory live transcript mirror")
		mirror = cache.NewMemoryMirror(cfg.Pipeline.LiveMirrorTTL())
	}

	// Initialize object storage for raw capture retention. Optional: the
	// pipeline runs without it, recordings just aren't kept.
	var captureStore pipeline.ObjectStore
	if store, err := storage.NewCaptureStore(&cfg.Storage); err != nil {
		log.Printf("⚠️  Object storage unavailable, raw captures will not be retained: %v", err)
	} else {
		log.Println("✅ Object storage connected")
		captureStore = store
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	sessionRepo := repository.NewSessionRepository(db)
	actionItemRepo := repository.NewActionItemRepository(db)

	// Initialize transcription and analysis components
	log.Println("🤖 Initializing AI components...")
	executor := retry.NewExecutor(cfg.Pipeline.MaxRetries, cfg.Pipeline.InitialRetryDelay(), logger)

	engines := []pipeline.Engine{pkgai.NewAssemblyAIEngine(&cfg.Assembly)}
	if cfg.Whisper.APIKey != "" {
		engines = append(engines, pkgai.NewWhisperEngine(&cfg.Whisper))
		log.Println("✅ Whisper fallback engine enabled")
	} else {
		log.Println("⚠️  WHISPER_API_KEY not set, running without a fallback engine")
	}

	chunker := audio.NewChunker(logger)
	orchestrator := pipeline.NewOrchestrator(engines, executor, cfg.Pipeline.ChunkBatchSize, logger)
	groqClient := pkgai.NewGroqClient(&cfg.Groq)
	analysisStage := pipeline.NewAnalysisStage(groqClient, executor, cfg.Pipeline.MaxOutputTokens, cfg.Pipeline.Temperature, logger)

	// Initialize the recording pipeline service
	log.Println("🎙️  Initializing recording pipeline...")
	pipelineService := pipeline.NewService(
		sessionRepo,
		actionItemRepo,
		chunker,
		orchestrator,
		analysisStage,
		captureStore,
		cfg.Pipeline.MaxChunkDuration(),
		cfg.Pipeline.MaxConcurrent,
		logger,
	)

	// Initialize the live dictation service
	log.Println("🎤 Initializing live dictation service...")
	newStream := func(ctx context.Context) (pkgai.StreamSession, error) {
		return pkgai.StartRealTimeSession(ctx, &cfg.Assembly, cfg.Pipeline.DictationSampleRate, logger)
	}
	dictationService := dictation.NewService(newStream, pipelineService, mirror, cfg.Pipeline.DictationSampleRate, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	sessionHandler := handler.NewSessionHandler(pipelineService)
	dictationHandler := handler.NewDictationHandler(dictationService)

	router := handler.NewRouter(cfg, sessionHandler, dictationHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
