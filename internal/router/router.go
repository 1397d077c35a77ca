package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/handler"
	"github.com/smartquiz/quizrun-backend/internal/middleware"
	"github.com/smartquiz/quizrun-backend/internal/response"
	"github.com/smartquiz/quizrun-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Quiz    *handler.QuizHandler
	Result  *handler.ResultHandler
	Admin   *handler.AdminHandler
	Monitor *handler.MonitorHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.QuizTokenHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		publicAPI.GET("/leaderboard", middleware.CacheControl(15), handlers.Result.GetLeaderboard)
	}

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.ParticipantLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireParticipantJWT(authService), handlers.Auth.ParticipantLogout)
		auth.GET("/me", middleware.RequireParticipantJWT(authService), handlers.Auth.GetParticipantProfile)
	}

	// ─── 2. Quiz Group (JWT + Single Device) ───────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(
		middleware.RequireParticipantJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		quizAPI.GET("/paper", handlers.Quiz.GetPaper)
		quizAPI.GET("/state", handlers.Quiz.GetState)
		quizAPI.GET("/result", handlers.Result.GetResult)

		// The write endpoints additionally require the per-attempt quiz
		// token the engine received at login.
		guarded := quizAPI.Group("")
		guarded.Use(middleware.RequireQuizToken(authService))
		{
			guarded.POST("/answers", handlers.Quiz.SaveAnswers)

			// Violations get their own rate limit: a pathological client
			// firing blur events must not flood the queue.
			violationLimiter := middleware.NewRateLimiter(60, time.Minute)
			guarded.POST("/violations", violationLimiter.Middleware(), handlers.Quiz.ReportViolation)

			guarded.POST("/submit", handlers.Quiz.Submit)
		}
	}

	// ─── 3. WebSocket Group (Participant WS Auth) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(authService))
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/dashboard", handlers.Admin.GetDashboard)
		adminAPI.GET("/monitor", handlers.Monitor.MonitorSSE)

		adminAPI.GET("/settings", handlers.Admin.GetSettings)
		adminAPI.PUT("/settings", handlers.Admin.UpdateSettings)

		adminAPI.GET("/questions", handlers.Admin.ListQuestions)
		adminAPI.POST("/questions", handlers.Admin.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Admin.UpdateQuestion)
		adminAPI.PATCH("/questions/:id/active", handlers.Admin.SetQuestionActive)

		adminAPI.GET("/participants", handlers.Admin.ListParticipants)
		adminAPI.POST("/participants/:id/reset-session", handlers.Admin.ResetParticipantSession)
		adminAPI.GET("/participants/:id/violations", handlers.Admin.GetParticipantViolations)

		adminAPI.GET("/violations", handlers.Admin.GetViolationReport)
		adminAPI.GET("/export", handlers.Admin.ExportResults)
	}

	return router
}
