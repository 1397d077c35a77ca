package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/database"
	"github.com/smartquiz/quizrun-backend/internal/handler"
	"github.com/smartquiz/quizrun-backend/internal/logger"
	"github.com/smartquiz/quizrun-backend/internal/repository"
	"github.com/smartquiz/quizrun-backend/internal/router"
	"github.com/smartquiz/quizrun-backend/internal/service"
	"github.com/smartquiz/quizrun-backend/internal/validator"
	"github.com/smartquiz/quizrun-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QuizRun Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	participantRepo := repository.NewParticipantRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, participantRepo, adminRepo)
	monitorService := service.NewMonitorService(participantRepo, submissionRepo, violationRepo, questionRepo, rdb, log)
	quizService := service.NewQuizService(participantRepo, questionRepo, answerRepo, violationRepo, settingRepo, rdb, monitorService)
	violationService := service.NewViolationService(violationRepo, settingRepo, rdb, monitorService)
	submissionService := service.NewSubmissionService(participantRepo, questionRepo, submissionRepo, answerRepo, settingRepo, rdb, monitorService, cfg.ResultRedirect)
	settingService := service.NewSettingService(settingRepo, rdb)
	questionService := service.NewQuestionService(questionRepo, rdb)
	resultService := service.NewResultService(participantRepo, submissionRepo, violationRepo)
	participantService := service.NewParticipantService(participantRepo, authService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, participantService),
		Quiz:    handler.NewQuizHandler(quizService, violationService, submissionService),
		Result:  handler.NewResultHandler(resultService),
		Admin:   handler.NewAdminHandler(monitorService, settingService, questionService, participantService, violationService, resultService),
		Monitor: handler.NewMonitorHandler(monitorService, log),
		WS:      handler.NewWSHandler(quizService, violationService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	violationWorker := worker.NewViolationWorker(pool, rdb, log)

	go autosaveWorker.Start(workerCtx)
	go violationWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
