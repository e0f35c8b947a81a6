// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/container"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/cleanup"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/manager"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
	"github.com/pixpage/pixpage/internal/presentation/http/routes"
	"github.com/pixpage/pixpage/internal/presentation/http/server"
	"github.com/pixpage/pixpage/pkg/config"
)

// Initialize performs the startup sequence and blocks until a shutdown
// signal has been handled.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
   ___  _      ___
  / _ \(_)_ __/ _ \___ ____ ____
 / ___/ /\ \ / ___/ _ '/ _ '/ -_)
/_/  /_//_\_\_/   \_,_/\_, /\__/
                      /___/` + "\033[0m")

	// Step 1: Channeled logger
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Logger initialized - switching to channeled logging", "level", config.LogLevel, "toFile", config.LogToFile)

	perfTracker := performance.NewTracker(nil)
	perfTracker.OnAlert(func(alert performance.PerformanceAlert) {
		logger.Alert().Warn(alert.Message,
			"severity", alert.Severity,
			"operation", alert.Operation,
			"scope", alert.Scope,
			"actual", alert.Actual)
	})

	// Step 2: Database
	phaseStart := time.Now()
	db, err := database.Open(ctx, database.OptionsFromConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := database.NewTableCreator().CreateSchema(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.LogStartupPhase("database", time.Since(phaseStart), true)

	// Step 3: Cache and dependency injection container
	phaseStart = time.Now()
	cacheManager := manager.NewManager(config.PageCacheTTL, config.HTMLChunkTTL, logger)
	appContainer, err := container.NewContainer(db, cacheManager, logger, perfTracker)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phaseStart), true)

	// Step 4: Stored settings override the environment
	if err := appContainer.SettingsService.Apply(ctx); err != nil {
		logger.Startup().Error("Failed to apply stored settings, using environment values", "error", err.Error())
	}
	if !appContainer.Gateway.Configured() {
		logger.Startup().Warn("Payment gateway has no secret key, checkouts will fail until it is configured")
	}

	// Step 5: Realtime status push and payment watchers
	go appContainer.Broadcaster.Run(ctx)

	resumed, err := appContainer.PaymentService.ResumePending(ctx)
	if err != nil {
		logger.Startup().Error("Failed to resume pending payments", "error", err.Error())
	} else {
		logger.Startup().Info("Pending payments resumed", "count", resumed)
	}

	// Step 6: Background cleanup worker
	cleanupWorker := cleanup.NewWorker(cacheManager, appContainer.PaymentService, perfTracker, cleanup.NewConfig(), logger)
	go cleanupWorker.Start(ctx)
	logger.Startup().Info("Background cleanup worker started", "interval", config.CleanupInterval)

	// Step 7: HTTP server
	httpServer := server.New(server.OptionsFromConfig(), routes.SetupRoutes(appContainer), logger)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port,
		"publicBaseUrl", config.PublicBaseURL)

	// Wait for shutdown signal or a listener failure
	select {
	case sig := <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			cancelBackgroundTasks()
			appContainer.PaymentService.Shutdown()
			return err
		}
	}

	shutdownStart := time.Now()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(context.Background()); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Stopping payment watchers...", "active", appContainer.PaymentService.Watching())
	appContainer.PaymentService.Shutdown()

	// Cancel background tasks: broadcaster and cleanup worker
	cancelBackgroundTasks()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

func newLogger() (*logging.ChanneledLogger, error) {
	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		log.Printf("Invalid LOG_LEVEL %q, using info", config.LogLevel)
	}
	cfg := logging.DefaultLoggerConfig()
	cfg.DefaultLevel = level
	cfg.JSONFormat = config.LogJSON
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory
	return logging.NewChanneledLogger(cfg)
}

// setupLogging configures application logging
func setupLogging() {
	switch config.GinMode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(config.GinMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
