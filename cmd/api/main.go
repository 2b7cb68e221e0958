package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/classpulse-team/classpulse/pkg/validator"

	"github.com/classpulse-team/classpulse/internal/adapter/handler"
	"github.com/classpulse-team/classpulse/internal/infrastructure/cache"
	"github.com/classpulse-team/classpulse/internal/infrastructure/hub"
	"github.com/classpulse-team/classpulse/internal/infrastructure/registry"
	"github.com/classpulse-team/classpulse/internal/scheduler"
	aiuse "github.com/classpulse-team/classpulse/internal/usecase/ai"
	engage "github.com/classpulse-team/classpulse/internal/usecase/engagement"
	"github.com/classpulse-team/classpulse/internal/usecase/leaderboard"
	pkgai "github.com/classpulse-team/classpulse/pkg/ai"
	"github.com/classpulse-team/classpulse/pkg/config"
	"github.com/classpulse-team/classpulse/pkg/jwt"
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
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Meeting registry, material cache and push hub
	reg := registry.New(cfg.Engagement, logger)
	materials := cache.NewMaterialStore(cfg.Engagement.MaterialTTL)
	push := hub.New(logger)

	// AI agents
	log.Println("🤖 Initializing AI agents...")
	claudeClient := pkgai.NewClaudeClient(&cfg.Claude)
	agents := aiuse.NewAgents(claudeClient, logger)

	// Leaderboard
	board := leaderboard.NewService()

	// Engagement policy
	log.Println("📊 Initializing engagement policy...")
	policy := engage.NewPolicy(reg, materials, push, agents, agents, agents, agents, cfg.Engagement, logger)

	// Panel token manager
	log.Println("🔑 Initializing panel token manager...")
	tokenManager := jwt.NewManager(cfg.Panel.TokenSecret, cfg.Panel.TokenExpiry)

	// Handlers
	log.Println("🚀 Initializing handlers...")
	eventController := handler.NewEventController(reg, policy, board, push, logger)
	meetingController := handler.NewMeetingController(reg, policy, board, materials, agents, push, tokenManager, cfg, logger)
	streamController := handler.NewStreamController(push, tokenManager, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, eventController, meetingController, streamController)
	router.Setup(e)

	// Periodic tick scheduler
	var sched *scheduler.Scheduler
	if cfg.Engagement.SchedulerEnabled {
		log.Printf("⏱️  Starting tick scheduler (interval: %s)", cfg.Engagement.TickInterval)
		sched = scheduler.New(policy, reg, cfg.Engagement.TickInterval, logger)
		sched.Start(context.Background())
	} else {
		log.Println("⏱️  Tick scheduler disabled; ticks must be triggered via the API")
	}

	// Start server
	go func() {
		addr := cfg.GetAddr()
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

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
